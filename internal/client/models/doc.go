// Package models defines the client-side shapes exchanged with the docsum
// backend: users, documents, chat sessions and messages.
//
// Several backend payloads come in more than one shape. Parsing for those is
// centralised here with an explicit field priority (see TokenFields,
// UserFields and MessageRecord.Text) so call sites never grow their own
// fallback chains.
package models
