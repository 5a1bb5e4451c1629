// Package atproto subscribes to an atproto relay firehose
// (com.atproto.sync.subscribeRepos) and decodes its event frames.
//
// Each websocket binary message is one frame: a CBOR header {op, t}
// followed by a CBOR body. Only #commit bodies become domain.Commit
// values; other message kinds are recognised and ignored. Error frames
// (op -1) are reported as domain.ErrUpstream.
package atproto
