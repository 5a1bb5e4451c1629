// Package car decodes CAR v1 block containers as carried by firehose commits.
//
// A container is a varint-prefixed DAG-CBOR header naming the root CIDs,
// followed by varint-prefixed sections of CID bytes and block bytes.
// DAG-CBOR blocks decode to plain Go values with map[string]any maps so
// they marshal to JSON; CID links become {"$link": cid} and byte strings
// become {"$bytes": base64}. Raw blocks are kept as bytes.
//
// Framing errors fail the whole container. A block whose CID or body is
// bad is reported as a failure and its siblings still decode.
package car
