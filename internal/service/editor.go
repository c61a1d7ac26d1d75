package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"planboard/internal/board"
	"planboard/internal/domain"
	"planboard/internal/reconcile"
	"planboard/internal/repository"
	"planboard/pkg/errors"
	"planboard/pkg/logger"

	"go.uber.org/zap"
)

// EditorService owns every operator editing session. Each session holds the
// authoritative local BoardState for one loaded proposal version; mutations
// are serialized per session, complete fully before any network call, and
// advisory refreshes are tagged with an edit sequence so a race-delayed
// response can never overwrite newer local state.
type EditorService struct {
	plan    *reconcile.Client
	store   *SessionStore
	audit   repository.AuditLog
	eventID string
	logger  *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu  sync.Mutex
	id  string
	dir *board.Directory

	state *domain.BoardState

	// editSeq increments on every successful local mutation. advisorySeq is
	// the edit sequence of the newest advisory response already applied;
	// responses at or below it, or whose tag no longer matches editSeq, are
	// discarded on arrival.
	editSeq     uint64
	advisorySeq uint64

	metrics  domain.Metrics
	advisory *domain.ValidateResult
}

// NewEditorService creates the editor. store and audit may be nil; the
// editor then runs without snapshots or an audit trail.
func NewEditorService(plan *reconcile.Client, store *SessionStore, audit repository.AuditLog, eventID string, log *logger.Logger) *EditorService {
	return &EditorService{
		plan:     plan,
		store:    store,
		audit:    audit,
		eventID:  eventID,
		logger:   log,
		sessions: make(map[string]*session),
	}
}

// Load discards any existing session state and loads one proposal version
// from the plan backend. The board starts clean.
func (e *EditorService) Load(ctx context.Context, sessionID string, version int) (*domain.BoardView, error) {
	details, err := e.plan.Details(ctx, version)
	if err != nil {
		return nil, err
	}

	sess := buildSession(sessionID, details)

	e.mu.Lock()
	e.sessions[sessionID] = sess
	e.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	e.snapshotLocked(ctx, sess)

	e.logger.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"version":    version,
		"groups":     len(sess.state.Groups),
	}).Info("Proposal version loaded")

	return sess.renderLocked(), nil
}

// Reload wholly replaces the session with a fresh copy of its current
// version. Local edits are discarded; there is no incremental merge.
func (e *EditorService) Reload(ctx context.Context, sessionID string) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	version := sess.state.Version
	sess.mu.Unlock()
	return e.Load(ctx, sessionID, version)
}

// Board renders the current session state. Rendering is a pure projection;
// calling it repeatedly yields identical views.
func (e *EditorService) Board(ctx context.Context, sessionID string) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.renderLocked(), nil
}

// Drop applies one drag-and-drop transition. The reducer either applies it
// fully or rejects it with zero state change; only then are the advisory
// preview/validate refreshes kicked off, so the rendered board always
// reflects the local mutation regardless of network latency.
func (e *EditorService) Drop(ctx context.Context, sessionID string, ev domain.DropEvent) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := board.ApplyDrop(sess.state, sess.dir, ev); err != nil {
		return nil, err
	}

	e.afterMutationLocked(ctx, sess)
	return sess.renderLocked(), nil
}

// Split splits a real team into one atomic participant per member and
// removes the team from every group. Idempotent while the draft exists.
func (e *EditorService) Split(ctx context.Context, sessionID string, teamID domain.EntityID) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := sess.dir.SplitTeam(sess.state, teamID); err != nil {
		return nil, err
	}

	e.afterMutationLocked(ctx, sess)
	return sess.renderLocked(), nil
}

// Stage adds an entity to the pairing staging list. The moment two entities
// are staged a composite forms and persistence is attempted immediately; a
// failed persistence rolls the pairing back completely and surfaces as a
// blocking error.
func (e *EditorService) Stage(ctx context.Context, sessionID, actor string, entityID domain.EntityID) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.dir.Stage(sess.state, entityID); err != nil {
		return nil, err
	}

	var persistErr error
	if sess.dir.CanFormPair() {
		draft, _, err := sess.dir.FormPair()
		if err != nil {
			return nil, err
		}
		persistErr = e.persistPairLocked(ctx, sess, actor, draft)
	}

	e.afterMutationLocked(ctx, sess)
	if persistErr != nil {
		return nil, persistErr
	}
	return sess.renderLocked(), nil
}

// Unstage returns a staged entity to the available pool.
func (e *EditorService) Unstage(ctx context.Context, sessionID string, entityID domain.EntityID) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.dir.Unstage(entityID); err != nil {
		return nil, err
	}
	e.snapshotLocked(ctx, sess)
	return sess.renderLocked(), nil
}

// Save commits the board to the plan backend. A structural warning comes
// back as a save conflict — the dirty flag survives — and only a subsequent
// confirmed save with force clears it.
func (e *EditorService) Save(ctx context.Context, sessionID, actor string, force bool) (*domain.BoardView, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	result, err := e.plan.SetGroups(ctx, sess.state.Version, domain.GroupPayloads(sess.state.Groups), force)
	if err != nil {
		return nil, err
	}

	if result.Status == domain.SaveStatusWarning {
		details := map[string]interface{}{}
		if len(result.Violations) > 0 {
			details["violations"] = result.Violations
		}
		if len(result.PhaseIssues) > 0 {
			details["phase_issues"] = result.PhaseIssues
		}
		return nil, errors.NewSaveConflictError("the plan has structural warnings; confirm to save anyway", details)
	}

	sess.state.Dirty = false
	e.snapshotLocked(ctx, sess)

	action := repository.AuditActionSave
	if force {
		action = repository.AuditActionForceSave
	}
	e.recordAudit(ctx, action, sess.state.Version, actor, map[string]interface{}{
		"groups": len(sess.state.Groups),
	})

	return sess.renderLocked(), nil
}

// ReleasePreflight re-fetches the outstanding issues for the loaded version,
// fresh from the backend, for the operator's release confirmation. Rejected
// locally while the board is dirty.
func (e *EditorService) ReleasePreflight(ctx context.Context, sessionID string) (*domain.IssuesResult, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Dirty {
		return nil, errors.NewPreconditionError("the board has unsaved changes; save before releasing")
	}
	return e.plan.Issues(ctx, sess.state.Version)
}

// Release makes the loaded version the single active plan of the event.
// While dirty it is rejected without any network call.
func (e *EditorService) Release(ctx context.Context, sessionID, actor string) error {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Dirty {
		return errors.NewPreconditionError("the board has unsaved changes; save before releasing")
	}

	// One last fresh issues fetch before committing; the advisory display
	// may be stale.
	if _, err := e.plan.Issues(ctx, sess.state.Version); err != nil {
		return err
	}

	if err := e.plan.Finalize(ctx, sess.state.Version); err != nil {
		return err
	}

	e.recordAudit(ctx, repository.AuditActionRelease, sess.state.Version, actor, nil)
	return nil
}

// Unrelease withdraws the loaded version from active status.
func (e *EditorService) Unrelease(ctx context.Context, sessionID, actor string) error {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := e.plan.Unrelease(ctx, sess.state.Version); err != nil {
		return err
	}

	e.recordAudit(ctx, repository.AuditActionUnrelease, sess.state.Version, actor, nil)
	return nil
}

// RecentAudit lists the newest commit-grade actions for the event.
func (e *EditorService) RecentAudit(ctx context.Context, limit int) ([]repository.AuditEntry, error) {
	if e.audit == nil {
		return nil, nil
	}
	return e.audit.RecentActions(ctx, e.eventID, limit)
}

// persistPairLocked attempts durable persistence of a freshly formed pair
// and rolls the draft back completely on any non-success.
func (e *EditorService) persistPairLocked(ctx context.Context, sess *session, actor string, draft *domain.PairDraft) error {
	acquired, err := e.store.TryPairLock(ctx, draft.CompositeID)
	if err != nil {
		// The backend call itself is idempotent by synthetic id; the lock
		// only shortcuts duplicates, so a lock error is not fatal.
		e.logger.WithError(err).Warn("Pair idempotency lock unavailable")
		acquired = true
	}
	if !acquired {
		sess.dir.RollbackPair(draft)
		return errors.NewPreconditionError(fmt.Sprintf("pair %s is already being persisted", draft.CompositeID))
	}

	if err := e.plan.CreateFromSynthetic(ctx, e.eventID, draft.CompositeID); err != nil {
		sess.dir.RollbackPair(draft)
		e.store.ReleasePairLock(ctx, draft.CompositeID)
		e.logger.WithError(err).WithField("composite_id", draft.CompositeID).Error("Pair persistence failed, rolled back")
		return errors.NewPersistFailureError("pairing could not be persisted; both participants were restored", err)
	}

	sess.dir.CompletePair(draft.CompositeID)
	e.recordAudit(ctx, repository.AuditActionPairPersisted, sess.state.Version, actor, map[string]interface{}{
		"composite_id": draft.CompositeID,
		"components":   draft.Components,
	})

	e.logger.WithFields(map[string]interface{}{
		"composite_id": draft.CompositeID,
	}).Info("Synthetic pair persisted")
	return nil
}

// session resolves a live session, falling back to a stored snapshot.
func (e *EditorService) session(ctx context.Context, sessionID string) (*session, error) {
	e.mu.RLock()
	sess, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if ok {
		return sess, nil
	}

	snap, err := e.store.Load(ctx, sessionID)
	if err != nil {
		e.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to load session snapshot")
	}
	if snap == nil || snap.State == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no editing session %s; load a version first", sessionID))
	}

	sess = &session{
		id:       sessionID,
		dir:      board.FromSnapshot(snap.Directory),
		state:    snap.State,
		metrics:  snap.Metrics,
		advisory: snap.Advisory,
	}

	e.mu.Lock()
	// Another request may have restored it concurrently; keep the winner.
	if existing, ok := e.sessions[sessionID]; ok {
		sess = existing
	} else {
		e.sessions[sessionID] = sess
	}
	e.mu.Unlock()

	e.logger.WithField("session_id", sessionID).Info("Session restored from snapshot")
	return sess, nil
}

// afterMutationLocked runs the post-mutation pipeline: bump the edit
// sequence, snapshot, then fire the advisory refresh for the new sequence.
func (e *EditorService) afterMutationLocked(ctx context.Context, sess *session) {
	sess.editSeq++
	e.snapshotLocked(ctx, sess)
	e.scheduleAdvisory(sess, sess.editSeq, domain.GroupPayloads(sess.state.Groups))
}

// scheduleAdvisory refreshes derived display fields off the request path.
// The response is tagged with the edit sequence at launch and dropped if a
// newer edit happened or a newer response already landed. Transport errors
// degrade silently; the stale display is retained.
func (e *EditorService) scheduleAdvisory(sess *session, seq uint64, groups []domain.GroupPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		preview, perr := e.plan.Preview(ctx, groups)
		validate, verr := e.plan.Validate(ctx, groups)
		if perr != nil {
			e.logger.WithError(perr).Debug("Advisory preview failed; keeping last display")
		}
		if verr != nil {
			e.logger.WithError(verr).Debug("Advisory validate failed; keeping last display")
		}
		if perr != nil && verr != nil {
			return
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		if seq != sess.editSeq || seq <= sess.advisorySeq {
			e.logger.Debug("Discarding stale advisory response",
				zap.Uint64("response_seq", seq),
				zap.Uint64("edit_seq", sess.editSeq))
			return
		}

		if perr == nil {
			applyPreviewLocked(sess, preview)
		}
		if verr == nil {
			sess.advisory = validate
		}
		sess.advisorySeq = seq
	}()
}

// applyPreviewLocked copies derived display fields from a preview response
// onto the matching groups. Core fields are never touched.
func applyPreviewLocked(sess *session, preview *domain.PreviewResult) {
	if len(preview.Groups) == len(sess.state.Groups) {
		for i := range sess.state.Groups {
			sess.state.Groups[i].TravelSeconds = preview.Groups[i].TravelSeconds
			sess.state.Groups[i].Score = preview.Groups[i].Score
			sess.state.Groups[i].Warnings = preview.Groups[i].Warnings
		}
	}
	if preview.Metrics != nil {
		sess.metrics = preview.Metrics
	}
}

func (e *EditorService) snapshotLocked(ctx context.Context, sess *session) {
	e.store.Save(ctx, &SessionSnapshot{
		SessionID: sess.id,
		State:     sess.state,
		Directory: sess.dir.Snapshot(),
		Metrics:   sess.metrics,
		Advisory:  sess.advisory,
	})
}

func (e *EditorService) recordAudit(ctx context.Context, action string, version int, actor string, detail map[string]interface{}) {
	if e.audit == nil {
		return
	}
	entry := &repository.AuditEntry{
		EventID: e.eventID,
		Version: version,
		Action:  action,
		Actor:   actor,
		Detail:  detail,
	}
	if err := e.audit.RecordAction(ctx, entry); err != nil {
		e.logger.WithError(err).WithField("action", action).Warn("Failed to record audit action")
	}
}

// buildSession constructs a fresh session from a details response.
func buildSession(sessionID string, details *domain.DetailsResult) *session {
	dir := board.NewDirectory()
	for _, team := range details.TeamDetails {
		dir.Add(domain.EntityFromTeamPayload(team))
	}

	groups := make([]domain.Group, len(details.Groups))
	for i, g := range details.Groups {
		groups[i] = domain.GroupFromPayload(g)
	}

	return &session{
		id:  sessionID,
		dir: dir,
		state: &domain.BoardState{
			Version: details.Version,
			Groups:  groups,
		},
		metrics: details.Metrics,
	}
}

// renderLocked projects session state into the board view.
func (sess *session) renderLocked() *domain.BoardView {
	view := &domain.BoardView{
		Version:  sess.state.Version,
		Dirty:    sess.state.Dirty,
		Metrics:  sess.metrics,
		Advisory: sess.advisory,
	}

	for _, phase := range domain.Phases() {
		pv := domain.PhaseView{Phase: phase}
		n := 0
		for i := range sess.state.Groups {
			g := &sess.state.Groups[i]
			if g.Phase != phase {
				continue
			}
			gv := domain.GroupView{
				Index:         n,
				TravelSeconds: g.TravelSeconds,
				Score:         g.Score,
				Warnings:      g.Warnings,
				Guests:        []domain.EntityView{},
			}
			if g.Host != "" {
				hv := sess.entityViewLocked(g.Host)
				gv.Host = &hv
			}
			for _, gid := range g.Guests {
				gv.Guests = append(gv.Guests, sess.entityViewLocked(gid))
			}
			pv.Groups = append(pv.Groups, gv)
			n++
		}
		view.Phases = append(view.Phases, pv)
	}

	for _, ent := range sess.dir.Available(sess.state) {
		view.Unplaced = append(view.Unplaced, sess.entityViewLocked(ent.ID))
	}
	for _, id := range sess.dir.Staging() {
		view.Staged = append(view.Staged, sess.entityViewLocked(id))
	}

	return view
}

func (sess *session) entityViewLocked(id domain.EntityID) domain.EntityView {
	ent, ok := sess.dir.Get(id)
	if !ok {
		return domain.EntityView{ID: id, Label: string(id), Status: domain.StatusPlaced}
	}
	return domain.EntityView{
		ID:          ent.ID,
		Kind:        ent.Ref.Kind,
		Label:       entityLabel(ent),
		Size:        ent.Size,
		Status:      sess.dir.StatusOf(id, sess.state),
		CanHostMain: ent.CanHostMain,
	}
}

func entityLabel(e *domain.Entity) string {
	names := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	if len(names) == 0 {
		return string(e.ID)
	}
	return strings.Join(names, " & ")
}
