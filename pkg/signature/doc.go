// Package signature signs component state so that state round-tripped
// through the client can be trusted when it comes back.
//
// State is reduced to canonical JSON before hashing. Two maps with the same
// content always produce the same bytes regardless of insertion order or
// nesting, so a signature survives any JSON re-encoding on the way.
//
//	signer, _ := signature.NewSigner(secret)
//	sig, _ := signer.Sign(state, id)
//	...
//	if err := signer.Check(state, id, sig); err != nil {
//	    // reject the request
//	}
package signature
