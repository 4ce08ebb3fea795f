// Package render runs render cycles for server-side components.
//
// A Renderer calls a component's render callback, parses the markup into a
// vdom tree, diffs it against the tree stored for the component id, prunes
// the patch list and packages it in a protocol.Envelope together with the
// full public state, its fingerprint and its signature.
//
//	signer, _ := signature.NewSigner(secret)
//	r, _ := render.New(render.Config{Signer: signer})
//	defer r.Close()
//
//	initial, err := r.RenderInitial(ctx, c) // HTML for the first paint
//	...
//	env, err := r.RenderUpdate(ctx, c)      // patches after a state change
//	body, err := r.Respond(env)
//
// Snapshots live in a snapshot.Store owned by the Renderer. They have no
// expiry: whoever owns a component scope calls Discard when the component
// goes away.
//
// The package also renders trees back to markup (HTML, WriteHTML) and
// adapts templ components as render callbacks (Templ, Node).
package render
