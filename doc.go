// Package uploadpack implements the server side of the fetch/clone wire
// protocol: packet-line framing, the V0 and V2 dialects, reachability
// policy, negotiation, shallow/filter planning, and pack-writer
// invocation.
//
// A session begins with one call to Upload, which reads a client's
// request or command stream from an input reader and writes the server's
// response to an output writer:
//
//   err := uploadpack.Upload(uploadpack.Session{
//       DB:              db,
//       Refs:            refs,
//       PackWriter:      store.NewRevlistPackWriter(db),
//       ProtocolVersion: "2",
//       Config:          uploadpack.Config{Policy: policy.ReachableCommit},
//   }, conn, conn, nil)
//
// The object database and reference store are supplied by the caller;
// this package never opens files or sockets on its own.
package uploadpack
