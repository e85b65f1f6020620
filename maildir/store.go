package maildir

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/infodancer/maildirsync"
	maildirerrors "github.com/infodancer/maildirsync/errors"
)

const defaultInfoDelimiter = ':'

// Store is the maildir driver façade (C8). One Store corresponds to one
// opened configuration; Select/Open may be called repeatedly to visit
// different folders in turn. Every exported method completes its callback
// inline before returning, per the synchronous driver contract (§9).
type Store struct {
	cfg maildirsync.StoreConfig

	folders []string

	selected  string
	isInbox   bool
	folderPath string
	trashPath string
	infoDelim byte
	useFsync  bool

	fresh    freshSubdirs
	uidStore uidStore

	opts     maildirsync.OpenOption
	scanMin  uint32
	scanMax  uint32
	scanNew  uint32
	excluded map[uint32]bool

	messages []*maildirsync.Message

	failState maildirsync.FailState
}

// New builds a Store from cfg without touching the filesystem; Connect
// performs validation.
func New(cfg maildirsync.StoreConfig) (*Store, error) {
	if cfg.Inbox == "" {
		cfg.Inbox = "~/Maildir"
	}
	delim := cfg.InfoDelimiter
	if delim == 0 {
		delim = defaultInfoDelimiter
	}
	return &Store{cfg: cfg, infoDelim: delim}, nil
}

func (b *Store) Connect(cb maildirsync.StatusFunc) {
	if b.cfg.Inbox == "" {
		b.failState = maildirsync.FailFinal
		cb(maildirsync.StatusStoreBad)
		return
	}
	if b.cfg.Trash != "" {
		path, _, err := resolveFolder(&b.cfg, b.cfg.Trash)
		if err != nil {
			b.failState = maildirsync.FailFinal
			cb(maildirsync.StatusStoreBad)
			return
		}
		b.trashPath = path
	}
	cb(maildirsync.StatusOK)
}

func (b *Store) List(flags maildirsync.ListFlag, cb maildirsync.StatusFunc) {
	names, err := listFolders(&b.cfg, flags)
	if err != nil {
		cb(maildirsync.StatusBoxBad)
		return
	}
	b.folders = names
	cb(maildirsync.StatusOK)
}

func (b *Store) Folders() []string { return b.folders }

func (b *Store) Select(name string) error {
	path, isInbox, err := resolveFolder(&b.cfg, name)
	if err != nil {
		return err
	}
	b.selected = name
	b.isInbox = isInbox
	b.folderPath = path
	return nil
}

func (b *Store) Open(cb maildirsync.StatusFunc) {
	b.openOrCreate(false, cb)
}

func (b *Store) Create(cb maildirsync.StatusFunc) {
	b.openOrCreate(true, cb)
}

func (b *Store) openOrCreate(create bool, cb maildirsync.StatusFunc) {
	if b.uidStore != nil {
		_ = b.uidStore.close()
		b.uidStore = nil
	}

	fresh, err := validate(b.folderPath, create)
	if err != nil {
		cb(maildirsync.StatusBoxBad)
		return
	}
	b.fresh = fresh

	store, err := openUIDStore(b.folderPath, b.cfg.AltMap)
	if err != nil {
		cb(maildirsync.StatusBoxBad)
		return
	}
	b.uidStore = store
	cb(maildirsync.StatusOK)
}

func (b *Store) ConfirmEmpty() maildirsync.Status {
	msgs, err := scan(b.folderPath, b.infoDelim, b.fresh, b.uidStore, scanParams{maxUID: ^uint32(0)})
	if err != nil {
		return maildirsync.StatusBoxBad
	}
	if len(msgs) == 0 {
		return maildirsync.StatusOK
	}
	return maildirsync.StatusBoxBad
}

func (b *Store) Delete(cb maildirsync.StatusFunc) {
	if _, err := validate(b.folderPath, false); err != nil {
		cb(maildirsync.StatusBoxBad)
		return
	}
	sweepStaleTmp(filepath.Join(b.folderPath, "tmp"))

	if b.uidStore != nil {
		if err := b.uidStore.remove(); err != nil {
			cb(maildirsync.StatusBoxBad)
			return
		}
		b.uidStore = nil
	}

	for _, sub := range [...]string{"tmp", "new", "cur"} {
		if err := rmdirIfEmpty(filepath.Join(b.folderPath, sub)); err != nil {
			cb(maildirsync.StatusBoxBad)
			return
		}
	}
	cb(maildirsync.StatusOK)
}

func (b *Store) FinishDelete() error {
	return rmdirTolerant(b.folderPath)
}

func (b *Store) PrepareLoad(opts maildirsync.OpenOption) {
	b.opts = opts.Widen()
}

func (b *Store) LoadBox(minUID, maxUID, newUID uint32, excluded []uint32, cb maildirsync.StatusFunc) {
	b.scanMin, b.scanMax, b.scanNew = minUID, maxUID, newUID
	b.excluded = make(map[uint32]bool, len(excluded))
	for _, uid := range excluded {
		b.excluded[uid] = true
	}

	msgs, err := scan(b.folderPath, b.infoDelim, b.fresh, b.uidStore, scanParams{
		minUID:   minUID,
		maxUID:   maxUID,
		excluded: b.excluded,
	})
	if err != nil {
		if errors.Is(err, maildirerrors.ErrDuplicateUID) {
			slog.Warn("maildir: duplicate uid found during scan", "folder", b.folderPath)
		}
		cb(maildirsync.StatusBoxBad)
		return
	}
	b.messages = msgs
	b.postProcess()
	cb(maildirsync.StatusOK)
}

// postProcess applies the optional per-message work requested via
// PrepareLoad (sizes, TUID discovery) (§4.4 step 10).
func (b *Store) postProcess() {
	if b.opts&maildirsync.OpenSize == 0 && b.opts&maildirsync.OpenFind == 0 {
		return
	}
	for _, msg := range b.messages {
		if b.opts&maildirsync.OpenSize != 0 {
			_, path := locateMsg(b.folderPath, msg)
			if info, err := statSize(path); err == nil {
				msg.Size = info
			}
		}
		if b.opts&maildirsync.OpenFind != 0 && msg.UID >= b.scanNew {
			_, path := locateMsg(b.folderPath, msg)
			if tuid, ok := findTUID(path); ok {
				msg.TUID = tuid
			}
		}
	}
}

func (b *Store) Messages() []*maildirsync.Message {
	sort.SliceStable(b.messages, func(i, j int) bool { return b.messages[i].UID < b.messages[j].UID })
	return b.messages
}

func (b *Store) rescanLocked() error {
	msgs, err := scan(b.folderPath, b.infoDelim, freshSubdirs{}, b.uidStore, scanParams{
		minUID:   b.scanMin,
		maxUID:   b.scanMax,
		excluded: b.excluded,
	})
	if err != nil {
		return err
	}
	b.messages = msgs
	return nil
}

func (b *Store) findLoaded(uid uint32) *maildirsync.Message {
	for _, m := range b.messages {
		if m.UID == uid {
			return m
		}
	}
	return nil
}

func (b *Store) FetchMsg(msg *maildirsync.Message, data *maildirsync.MsgData, cb maildirsync.StatusFunc) {
	cb(fetchMsg(b, msg, data))
}

func (b *Store) StoreMsg(data *maildirsync.MsgData, toTrash bool, cb maildirsync.AppendFunc) {
	status, uid, name, recent := storeMsg(b, data, toTrash)
	if status == maildirsync.StatusOK && !toTrash {
		m := &maildirsync.Message{UID: uid, Base: name, Flags: data.Flags, Status: maildirsync.StatusFlagsLoaded}
		if recent {
			m.Status |= maildirsync.StatusRecent
		}
		b.messages = append(b.messages, m)
	}
	cb(status, uid)
}

func (b *Store) FindNewMsgs(uint32, cb maildirsync.StatusFunc) {
	slog.Warn("maildir: FindNewMsgs called but is unreachable on this driver", "err", maildirerrors.ErrNotImplemented)
	cb(maildirsync.StatusStoreBad)
}

func (b *Store) SetMsgFlags(msg *maildirsync.Message, add, del maildirsync.Flag, cb maildirsync.StatusFunc) {
	cb(setMsgFlags(b, msg, add, del))
}

func (b *Store) TrashMsg(msg *maildirsync.Message, cb maildirsync.StatusFunc) {
	cb(trashMsg(b, msg))
}

func (b *Store) CloseBox(cb maildirsync.StatusFunc) {
	cb(closeBox(b, b.messages))
}

func (b *Store) CancelCmds(cb func()) { cb() }

func (b *Store) CommitCmds() {}

func (b *Store) MemoryUsage() int { return 0 }

func (b *Store) FailState() maildirsync.FailState { return b.failState }

// Close releases the store's UID-validity resource. Required because this
// driver, unlike the callback contract it implements, has no event loop to
// let the deferred-unlock timer fire on its own schedule.
func (b *Store) Close() error {
	if b.uidStore == nil {
		return nil
	}
	err := b.uidStore.close()
	b.uidStore = nil
	return err
}

var _ maildirsync.Driver = (*Store)(nil)

func init() {
	maildirsync.Register("maildir", func(cfg maildirsync.StoreConfig) (maildirsync.Driver, error) {
		return New(cfg)
	})
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func rmdirIfEmpty(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return err
}

// rmdirTolerant removes the folder root, tolerating it already being gone
// or still holding preserved subfolders (§4.6 finish_delete_box).
func rmdirTolerant(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if pe, ok := err.(*os.PathError); ok && strings.Contains(pe.Err.Error(), "directory not empty") {
		return nil
	}
	return err
}
