// Package maildir implements the maildirsync storage-driver contract
// against an on-disk Maildir tree (cur/new/tmp), assigning and persisting
// per-message UIDs that the format itself has no native concept of.
//
// It registers itself under the name "maildir"; import it with a blank
// identifier to enable it:
//
//	import _ "github.com/infodancer/maildirsync/maildir"
//
//	store, err := maildirsync.Open(maildirsync.StoreConfig{
//	    Type:  "maildir",
//	    Inbox: "/home/user/Maildir",
//	})
package maildir
