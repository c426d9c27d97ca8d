package wire

// The View types below are the wire-facing projections of engine state.
// They never carry a password hash or a spectator's stable identity —
// only what a client is allowed to see.

type RoomSettingsView struct {
	TimeControl     *TimeControl `json:"timeControl,omitempty"`
	AllowSpectators bool         `json:"allowSpectators"`
	AllowJoin       bool         `json:"allowJoin"`
	IsPrivate       bool         `json:"isPrivate"`
	RoomName        string       `json:"roomName,omitempty"`
	IsLocked        bool         `json:"isLocked"`
	HasPassword     bool         `json:"hasPassword"`
}

type MoveView struct {
	From          string `json:"from"`
	To            string `json:"to"`
	SAN           string `json:"san"`
	PositionAfter string `json:"positionAfter"`
	Timestamp     int64  `json:"timestamp"`
	Promotion     string `json:"promotion,omitempty"`
}

type GameView struct {
	Position    string     `json:"position"`
	Turn        string     `json:"turn"`
	Moves       []MoveView `json:"moves"`
	Status      string     `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	WhiteTimeMs *int64     `json:"whiteTime"`
	BlackTimeMs *int64     `json:"blackTime"`
	LastMoveAt  int64      `json:"lastMoveAt,omitempty"`
	StartedAt   int64      `json:"startedAt,omitempty"`
}

type RoomView struct {
	RoomID        string            `json:"roomId"`
	HostName      string            `json:"hostName"`
	OpponentName  string            `json:"opponentName,omitempty"`
	Spectators    []string          `json:"spectators"`
	State         string            `json:"state"`
	CreatedAt     int64             `json:"createdAt"`
	LastActivity  int64             `json:"lastActivity"`
	Game          *GameView         `json:"game,omitempty"`
	Settings      RoomSettingsView  `json:"settings"`
}

type SessionView struct {
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
	Color  string `json:"color,omitempty"`
}

type ListingView struct {
	RoomID         string       `json:"roomId"`
	RoomName       string       `json:"roomName,omitempty"`
	HostName       string       `json:"hostName"`
	State          string       `json:"state"`
	PlayerCount    int          `json:"playerCount"`
	SpectatorCount int          `json:"spectatorCount"`
	TimeControl    *TimeControl `json:"timeControl,omitempty"`
	CreatedAt      int64        `json:"createdAt"`
	LastActivity   int64        `json:"lastActivity"`
}

// ChatMessageView is the server-annotated shape of a delivered chat message.
type ChatMessageView struct {
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	ChatType   string `json:"chatType"`
	Timestamp  int64  `json:"timestamp"`
}
