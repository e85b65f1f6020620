// Package maildirsync defines the storage-driver contract shared by the
// backends of a bidirectional mailbox synchronizer: enumerate folders; open,
// create, and delete a folder; list, fetch, append, flag, trash, and expunge
// messages.
//
// This package holds only the contract (status codes, the message and
// configuration data model, and the Driver interface) plus a small registry
// for turning a StoreConfig into a Driver. The Maildir implementation lives
// in the sibling maildir package:
//
//	import _ "github.com/infodancer/maildirsync/maildir"
//
//	store, err := maildirsync.Open(maildirsync.StoreConfig{
//	    Type:  "maildir",
//	    Name:  "local",
//	    Inbox: "/home/user/Maildir",
//	})
//
// Other drivers (an IMAP client, say), the engine that pairs messages across
// two stores, and the event loop are external collaborators: this module
// only defines the contract between them and one driver.
package maildirsync
