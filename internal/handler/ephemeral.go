package handler

import (
	"crypto/rand"
	"encoding/hex"
)

// ephemeralHandle mints a throwaway connection handle for one HTTP
// mutation, mirroring original_source's _EphemeralConnection: the
// identity, login, lobby-create and lobby-join handlers reattach the
// caller's token to it so the registry always has somewhere to point,
// even though nothing reads from it synchronously. Nothing releases the
// binding when the call returns; the token stays bound to this handle
// until its next reattach. A live WebSocket handle bound to the same
// token is displaced (Reattach logs the conflict), as the original's
// _attach_token reassignment does.
func ephemeralHandle() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "ephemeral-" + hex.EncodeToString(b)
}
