// Package constraint keeps a codec selection and a container extension
// selection mutually consistent against the catalog's compatibility table.
//
// Each side filters the other: choosing a codec narrows the legal
// extensions, choosing an extension narrows the legal codecs. After any
// change [Filter.Reconcile] clears the extension when the pair no longer
// fits, then drops a codec id the table does not know. Clearing a side only
// ever widens the other side's legal set, so a single pass always converges.
package constraint
