package install

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"content-mover/internal/idmap"
	"content-mover/internal/idtypes"
	"content-mover/internal/lock"
	"content-mover/internal/model"
	"content-mover/internal/transform"
)

// Transaction states.
const (
	StatePending       = "pending"
	StateLocked        = "locked"
	StateStaged        = "staged"
	StateWritten       = "written"
	StatePolicyApplied = "policy_applied"
	StateCommitted     = "committed"
	StateAborted       = "aborted"
)

const (
	eventLock        = "lock"
	eventStage       = "stage"
	eventWrite       = "write"
	eventApplyPolicy = "apply_policy"
	eventCommit      = "commit"
	eventAbort       = "abort"
)

// ErrAborted wraps the cause of every aborted transaction.
var ErrAborted = errors.New("install aborted")

// Target is the system objects are installed into.
type Target interface {
	Definition(id model.DependencyID) (*model.Object, error)
	SaveDefinition(obj *model.Object) error
	Files(id model.DependencyID) (map[string]uint64, error)
	WriteFile(id model.DependencyID, path string, data []byte) error
	DeleteFile(id model.DependencyID, path string) error
	// Stop shuts the object down and reports whether it was running.
	Stop(id model.DependencyID) (bool, error)
	Start(id model.DependencyID) error
}

// Item is one packaged object to install.
type Item struct {
	Object *model.Object
	// Files are the auxiliary files keyed by relative path. They replace
	// the object's files on the target.
	Files map[string][]byte
	// IdTypes are remapped through the import context's id map before the
	// definition is written. Nil installs the definition as is.
	IdTypes *idtypes.ApplicationIdTypes
}

// Key returns the identity of the packaged object.
func (i *Item) Key() model.DependencyID {
	return i.Object.Key()
}

// Result describes one finished transaction.
type Result struct {
	Transaction string
	Object      model.DependencyID
	// Target is the identity the object is installed under, its key
	// translated through the id map.
	Target model.DependencyID
	State  string
	// Changes is the file diff, unchanged files included.
	Changes   []FileChange
	Entries   []LogEntry
	Transform *transform.Result
	Duration  time.Duration
}

// Transaction installs one object. A Transaction runs once.
type Transaction struct {
	id   string
	item *Item
	ictx *ImportContext
	in   *Installer
	log  *zap.SugaredLogger
	fsm  *fsm.FSM

	// key is the target identity, set by prepare.
	key model.DependencyID
	ids *idmap.Txn

	existed    bool
	wasRunning bool
	prior      uint64
	changes    []FileChange
	obj        *model.Object
	transform  *transform.Result
}

func newTransaction(in *Installer, item *Item, ictx *ImportContext) *Transaction {
	tx := &Transaction{
		id:   uuid.NewString(),
		item: item,
		ictx: ictx,
		in:   in,
		key:  item.Key(),
	}
	tx.ids = ictx.IdMap.Begin(tx.id)
	tx.log = in.log.With("object", item.Key().String(), "transaction", tx.id)

	active := []string{StatePending, StateLocked, StateStaged, StateWritten, StatePolicyApplied}

	tx.fsm = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: eventLock, Src: []string{StatePending}, Dst: StateLocked},
			{Name: eventStage, Src: []string{StateLocked}, Dst: StateStaged},
			{Name: eventWrite, Src: []string{StateStaged}, Dst: StateWritten},
			{Name: eventApplyPolicy, Src: []string{StateWritten}, Dst: StatePolicyApplied},
			{Name: eventCommit, Src: []string{StatePolicyApplied}, Dst: StateCommitted},
			{Name: eventAbort, Src: active, Dst: StateAborted},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				trace.SpanFromContext(ctx).AddEvent(e.Dst)
				tx.log.Debugw("transaction state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)

	return tx
}

// ID returns the transaction id stamped on the log entries.
func (tx *Transaction) ID() string {
	return tx.id
}

// State returns the current state.
func (tx *Transaction) State() string {
	return tx.fsm.Current()
}

func (tx *Transaction) fire(ctx context.Context, event string) error {
	if err := tx.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("transaction %s: %w", event, err)
	}

	return nil
}

// locked runs the steps that need the object lock.
func (tx *Transaction) locked(ctx context.Context) error {
	if err := tx.fire(ctx, eventLock); err != nil {
		return err
	}

	steps := []struct {
		event string
		run   func() error
	}{
		{eventStage, tx.stage},
		{eventWrite, tx.write},
		{eventApplyPolicy, tx.applyPolicy},
	}

	for _, s := range steps {
		if err := leased(ctx); err != nil {
			return err
		}

		if err := s.run(); err != nil {
			return err
		}

		if err := tx.fire(ctx, s.event); err != nil {
			return err
		}
	}

	return nil
}

// leased fails once the lock was lost before a step: another holder may
// be changing the target.
func leased(ctx context.Context) error {
	if err := context.Cause(ctx); errors.Is(err, lock.ErrLost) {
		return err
	}

	return nil
}

// prepare moves a copy of the packaged object to its target identity.
// It runs before locking because the lock is taken on the target key.
func (tx *Transaction) prepare() error {
	obj, err := tx.item.Object.Clone()
	if err != nil {
		return err
	}

	if _, err := tx.in.transform.Rekey(obj, tx.ids); err != nil {
		return err
	}

	tx.obj = obj
	tx.key = obj.Key()

	if tx.key != tx.item.Key() {
		tx.log = tx.log.With("target", tx.key.String())
	}

	return nil
}

func (tx *Transaction) stage() error {
	key := tx.key
	target := tx.in.target

	old, err := target.Definition(key)

	switch {
	case err == nil:
		tx.existed = true

		if tx.prior, err = definitionDigest(old); err != nil {
			return err
		}
	case errors.Is(err, model.ErrNotFound):
	default:
		return fmt.Errorf("failed to read existing definition: %w", err)
	}

	if tx.existed {
		tx.wasRunning, err = target.Stop(key)
		if err != nil {
			return fmt.Errorf("failed to stop %s: %w", key, err)
		}
	}

	existing, err := target.Files(key)
	if err != nil {
		return fmt.Errorf("failed to list existing files: %w", err)
	}

	tx.changes = Diff(existing, tx.item.Files)

	return nil
}

func (tx *Transaction) write() error {
	key := tx.key
	target := tx.in.target
	obj := tx.obj

	if tx.item.IdTypes != nil {
		// The id types are keyed by the packaged identity.
		obj.ID = tx.item.Object.ID

		res, err := tx.in.transform.Transform(obj, tx.item.IdTypes, tx.ids)
		tx.transform = res
		obj.ID = key.Key

		if err != nil {
			return fmt.Errorf("failed to transform ids: %w", err)
		}
	}

	for _, c := range tx.changes {
		if c.Action != ActionCreated && c.Action != ActionModified {
			continue
		}

		if err := target.WriteFile(key, c.Path, tx.item.Files[c.Path]); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Path, err)
		}
	}

	if err := target.SaveDefinition(obj); err != nil {
		return fmt.Errorf("failed to save definition: %w", err)
	}

	for _, c := range tx.changes {
		if c.Action != ActionDeleted {
			continue
		}

		if err := target.DeleteFile(key, c.Path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", c.Path, err)
		}
	}

	return nil
}

func (tx *Transaction) applyPolicy() error {
	target := tx.in.target

	if !tx.ictx.Overrides.IsZero() {
		tx.ictx.Overrides.Apply(&tx.obj.Policy)

		if err := target.SaveDefinition(tx.obj); err != nil {
			return fmt.Errorf("failed to save policy: %w", err)
		}
	}

	if tx.obj.Policy.Enabled {
		if err := target.Start(tx.key); err != nil {
			return fmt.Errorf("failed to start %s: %w", tx.key, err)
		}
	}

	return nil
}

// entries builds the log entries of a committed transaction: one for a
// created or changed definition and one per created, modified or deleted
// file.
func (tx *Transaction) entries(now time.Time) ([]LogEntry, error) {
	key := tx.key

	var out []LogEntry

	switch {
	case !tx.existed:
		out = append(out, LogEntry{Transaction: tx.id, Object: key, Path: DefinitionPath, Action: ActionCreated, Time: now})
	default:
		digest, err := definitionDigest(tx.obj)
		if err != nil {
			return nil, err
		}

		if digest != tx.prior {
			out = append(out, LogEntry{Transaction: tx.id, Object: key, Path: DefinitionPath, Action: ActionModified, Time: now})
		}
	}

	for _, c := range changed(tx.changes) {
		out = append(out, LogEntry{Transaction: tx.id, Object: key, Path: c.Path, Action: c.Action, Time: now})
	}

	return out, nil
}
