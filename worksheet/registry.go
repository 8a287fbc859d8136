package worksheet

import "fmt"

// Registry is the ordered list of participants. Order is insertion order
// and is the column order shown by adapters.
type Registry struct {
	participants []Participant
}

func (r *Registry) Len() int { return len(r.participants) }

// Participants returns a copy of the participants in column order.
func (r *Registry) Participants() []Participant {
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// IDs returns participant ids in column order.
func (r *Registry) IDs() []ParticipantID {
	ids := make([]ParticipantID, len(r.participants))
	for i, p := range r.participants {
		ids[i] = p.ID
	}
	return ids
}

// Get looks up a participant by id.
func (r *Registry) Get(id ParticipantID) (Participant, bool) {
	if i := r.index(id); i >= 0 {
		return r.participants[i], true
	}
	return Participant{}, false
}

func (r *Registry) Contains(id ParticipantID) bool { return r.index(id) >= 0 }

// Name returns the display name for id, or "" when unknown.
func (r *Registry) Name(id ParticipantID) string {
	p, _ := r.Get(id)
	return p.Name
}

func (r *Registry) index(id ParticipantID) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) add(p Participant) {
	r.participants = append(r.participants, p)
}

func (r *Registry) rename(id ParticipantID, name string) error {
	i := r.index(id)
	if i < 0 {
		return participantNotFound(id)
	}
	r.participants[i].Name = name
	return nil
}

func (r *Registry) remove(id ParticipantID) error {
	i := r.index(id)
	if i < 0 {
		return participantNotFound(id)
	}
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return nil
}

func (r *Registry) clone() Registry {
	return Registry{participants: r.Participants()}
}

func defaultParticipantName(id ParticipantID) string {
	return fmt.Sprintf("Name %d", id)
}
