// ABOUTME: Mixer control protocol package
// ABOUTME: Defines protocol messages and the WebSocket control client
// Package protocol implements the mixer's JSON control protocol.
//
// Every message is a {"type", "payload"} envelope. Requests carry a
// request_id that the server echoes in its audio/result or audio/state
// reply; audio/state without a request_id is an unsolicited broadcast.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928", Name: "editor"})
//	if err := client.Connect(); err != nil {
//		log.Fatal(err)
//	}
//	id, err := client.Play(ctx, "a//laserSmall_000.ogg", false)
package protocol
