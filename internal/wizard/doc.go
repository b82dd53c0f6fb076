// Package wizard holds the per-user state machines behind the convert and
// trim dialogs.
//
// A [ConvertWizard] steps through file, codec and container selection and
// keeps the codec/container pair legal after every change. A [TrimWizard]
// owns a preview pipeline for one uploaded video and tracks the trim range,
// the typed bounds and the scrub preview. Both render their command with
// the command package and hand it to a history sink on completion.
//
// [Sessions] keys live wizards by id for the HTTP layer and closes the ones
// left idle.
package wizard
