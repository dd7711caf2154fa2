package events

import (
	"encoding/json"

	"neon-beat-back/internal/logging"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/storage/metrics"
)

// Bus owns the public and admin hubs plus the admin gate and the degraded
// watch, and is the single place domain code calls to publish an event.
// It implements phase.Broadcaster so RunTransitionWithBroadcast can
// publish phase_changed without the phase package depending on events.
type Bus struct {
	Public   *Hub
	Admin    *Hub
	Gate     *AdminGate
	Degraded *DegradedWatch

	// sessionFn is consulted by PublishPhaseChanged to attach song/
	// scoreboard context; passed to NewBus at construction and may return
	// nil while no game is loaded.
	sessionFn func() *model.GameSession
}

func NewBus(sessionFn func() *model.GameSession) *Bus {
	return &Bus{
		Public:    NewHub(),
		Admin:     NewHub(),
		Gate:      &AdminGate{},
		Degraded:  NewDegradedWatch(),
		sessionFn: sessionFn,
	}
}

func encode(name string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Log.WithError(err).WithField("event", name).Error("failed to encode event payload")
		data = []byte("{}")
	}
	return Envelope{Name: name, Data: data}
}

func (b *Bus) publishBoth(name string, payload any) {
	env := encode(name, payload)
	b.Public.Broadcast(env)
	b.Admin.Broadcast(env)
}

func (b *Bus) publishAdmin(name string, payload any) {
	b.Admin.Broadcast(encode(name, payload))
}

// PublishPhaseChanged implements phase.Broadcaster.
func (b *Bus) PublishPhaseChanged(newPhase phase.Phase) {
	var session *model.GameSession
	if b.sessionFn != nil {
		session = b.sessionFn()
	}
	b.publishBoth("phase_changed", PhaseChangedPayload(newPhase, session))
}

func (b *Bus) PublishSystemStatus(degraded bool) {
	b.publishBoth("system_status", SystemStatusDTO{Degraded: degraded})
}

// PublishGameTeams pushes the authoritative roster to the admin stream
// only; the public display derives what it needs from phase_changed
// scoreboards.
func (b *Bus) PublishGameTeams(teams []*model.Team) {
	b.publishAdmin("game_teams", scoreboardDTO(teams))
}

func (b *Bus) PublishTeamCreated(t *model.Team) {
	b.publishBoth("team_created", teamDTO(t))
}

func (b *Bus) PublishTeamUpdated(t *model.Team) {
	b.publishBoth("team_updated", teamDTO(t))
}

func (b *Bus) PublishTeamDeleted(id string) {
	b.publishBoth("team_deleted", map[string]string{"team_id": id})
}

func (b *Bus) PublishFieldsFound(songID int, pointFields, bonusFields []string) {
	b.publishBoth("fields_found", FieldsFoundDTO{SongID: songID, PointFields: pointFields, BonusFields: bonusFields})
}

func (b *Bus) PublishAnswerValidation(valid bool) {
	b.publishBoth("answer_validation", AnswerValidationDTO{Valid: valid})
}

func (b *Bus) PublishScoreAdjustment(teamID string, score int32) {
	b.publishBoth("score_adjustment", ScoreAdjustmentDTO{TeamID: teamID, Score: score})
}

func (b *Bus) PublishPairingWaiting(teamID string) {
	b.publishBoth("pairing_waiting", PairingWaitingDTO{TeamID: teamID})
}

func (b *Bus) PublishPairingAssigned(teamID, buzzerID string) {
	b.publishBoth("pairing_assigned", PairingAssignedDTO{TeamID: teamID, BuzzerID: buzzerID})
}

func (b *Bus) PublishPairingRestored(teams []*model.Team) {
	b.publishBoth("pairing_restored", PairingRestoredDTO{Snapshot: scoreboardDTO(teams)})
}

func (b *Bus) PublishTestBuzz(teamID string) {
	b.publishBoth("test_buzz", TestBuzzDTO{TeamID: teamID})
}

// EncodeHandshake builds the initial handshake envelope an SSE forwarder
// sends immediately after a client subscribes.
func EncodeHandshake(dto HandshakeDTO) Envelope { return encode("handshake", dto) }

// EncodeSystemStatus builds the system_status envelope an SSE forwarder
// emits whenever the degraded watch changes mid-stream.
func EncodeSystemStatus(dto SystemStatusDTO) Envelope { return encode("system_status", dto) }

// SetDegraded flips the watch (idempotently) and broadcasts system_status
// only when it actually changed.
func (b *Bus) SetDegraded(degraded bool) {
	if b.Degraded.Set(degraded) {
		metrics.SetDegraded(degraded)
		b.PublishSystemStatus(degraded)
	}
}
