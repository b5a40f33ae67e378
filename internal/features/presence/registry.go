package presence

// Identity is the resolved user behind a connection. One user may appear
// several times in the registry, once per open connection (browser tab).
type Identity struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Roster is the full-snapshot payload pushed on every membership change,
// partitioned by role. Roles outside technician/staff appear in All only.
type Roster struct {
	All         []Identity `json:"all"`
	Technicians []Identity `json:"technicians"`
	Staff       []Identity `json:"staff"`
}

// Registry tracks who is online. Keyed by connection id, so a user with two
// tabs open stays online until the last tab disconnects.
type Registry interface {
	Add(connID string, user Identity)
	Remove(connID string)
	Snapshot() Roster
}

type memoryRegistry struct {
	entries map[string]Identity
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{entries: make(map[string]Identity)}
}

func (r *memoryRegistry) Add(connID string, user Identity) {
	r.entries[connID] = user
}

func (r *memoryRegistry) Remove(connID string) {
	delete(r.entries, connID)
}

func (r *memoryRegistry) Snapshot() Roster {
	roster := Roster{
		All:         make([]Identity, 0, len(r.entries)),
		Technicians: []Identity{},
		Staff:       []Identity{},
	}

	for _, user := range r.entries {
		roster.All = append(roster.All, user)
		switch user.Role {
		case "technician":
			roster.Technicians = append(roster.Technicians, user)
		case "staff":
			roster.Staff = append(roster.Staff, user)
		}
	}

	return roster
}
