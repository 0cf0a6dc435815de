// Package goform is a headless form-state engine.
//
// It provides:
//
// - A field registry whose lifecycle follows field mount/unmount in the host UI
// - Value and error trees addressed by dotted paths (see package tree)
// - Validation scheduling driven by blur, armed change and submit requests
// - Focus/blur disambiguation for fields made of several sub-controls
// - A validate-then-submit lifecycle ending in the OnSubmit callback
//
// Design policy:
// - Keep the public API in the root package; put the engine under internal/.
// - Nothing here renders anything. A host UI layer (a Go program, the replay
//   tool, or a browser behind transport/wsbridge) raises notifications and
//   calls Flush after each interaction.
// - Validation messages are data, not errors. Go errors are reserved for
//   contract violations such as malformed paths or unregistered fields.
//
// Typical usage:
//
//	f := goform.New(tree.Tree{"email": ""}, goform.WithOnSubmit(save))
//	_ = f.RegisterField("email", field.Descriptor{Validate: rules.Email()})
//
//	email := goform.Control{Name: "email"}
//	_ = f.Focus(email)
//	_ = f.Change(email, "someone@example.com")
//	_ = f.Blur(email)
//	err := f.Flush(ctx)
//
//	f.SubmitForm()
//	err = f.Flush(ctx) // runs validation, then save({errors, values})
package goform
