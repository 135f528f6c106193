// Package notification delivers signup verification codes out of band.
//
// The lifecycle engine depends only on the CodeSender port. A failure to
// deliver the code is fatal to the initiation call on every path: the user
// cannot proceed without the code, so pretending the signup succeeded would
// strand them.
//
// Two implementations ship with the service: a Postmark-backed sender for
// production and a development sender that writes codes to a local directory.
package notification
