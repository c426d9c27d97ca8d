package wire

import (
	"fmt"
	"regexp"
	"strings"
)

var squarePattern = regexp.MustCompile(`^[a-h][1-8]$`)

const (
	minNameLen    = 1
	maxNameLen    = 20
	maxMessageLen = 500
	minInitialSec = 60
	maxInitialSec = 3600
	minIncrSec    = 0
	maxIncrSec    = 60
)

func validationErr(format string, args ...any) *Error {
	return NewError(CodeValidationFailed, fmt.Sprintf(format, args...))
}

func validateName(field, name string) *Error {
	if len(name) < minNameLen || len(name) > maxNameLen {
		return validationErr("%s must be %d-%d characters", field, minNameLen, maxNameLen)
	}
	return nil
}

func validateSquare(field, sq string) *Error {
	if !squarePattern.MatchString(sq) {
		return validationErr("%s must match [a-h][1-8]", field)
	}
	return nil
}

func validatePromotion(p string) *Error {
	if p == "" {
		return nil
	}
	switch strings.ToLower(p) {
	case "q", "r", "b", "n":
		return nil
	default:
		return validationErr("promotion must be one of q, r, b, n")
	}
}

// TimeControl is the request-side shape of a room's clock configuration.
type TimeControl struct {
	InitialSeconds   int `json:"initial"`
	IncrementSeconds int `json:"increment"`
}

func (tc *TimeControl) Validate() *Error {
	if tc == nil {
		return nil
	}
	if tc.InitialSeconds < minInitialSec || tc.InitialSeconds > maxInitialSec {
		return validationErr("timeControl.initial must be %d-%ds", minInitialSec, maxInitialSec)
	}
	if tc.IncrementSeconds < minIncrSec || tc.IncrementSeconds > maxIncrSec {
		return validationErr("timeControl.increment must be %d-%ds", minIncrSec, maxIncrSec)
	}
	return nil
}

// RoomSettings is the request-side shape of configurable room settings.
// Every field is a pointer so update-settings can distinguish "omitted"
// from "set to zero value" when merging a partial update.
type RoomSettings struct {
	TimeControl     *TimeControl `json:"timeControl,omitempty"`
	AllowSpectators *bool        `json:"allowSpectators,omitempty"`
	AllowJoin       *bool        `json:"allowJoin,omitempty"`
	IsPrivate       *bool        `json:"isPrivate,omitempty"`
	RoomName        *string      `json:"roomName,omitempty"`
}

func (s *RoomSettings) Validate() *Error {
	if s == nil {
		return nil
	}
	if s.TimeControl != nil {
		if err := s.TimeControl.Validate(); err != nil {
			return err
		}
	}
	if s.RoomName != nil {
		if len(*s.RoomName) > maxNameLen {
			return validationErr("roomName must be at most %d characters", maxNameLen)
		}
	}
	return nil
}

type RoomCreateRequest struct {
	PlayerName string        `json:"playerName"`
	Settings   *RoomSettings `json:"settings,omitempty"`
}

func (r *RoomCreateRequest) Validate() *Error {
	if err := validateName("playerName", r.PlayerName); err != nil {
		return err
	}
	return r.Settings.Validate()
}

type RoomJoinRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password,omitempty"`
}

func (r *RoomJoinRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	return validateName("playerName", r.PlayerName)
}

type RoomSpectateRequest struct {
	RoomID        string `json:"roomId"`
	SpectatorName string `json:"spectatorName,omitempty"`
	Password      string `json:"password,omitempty"`
}

func (r *RoomSpectateRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	if r.SpectatorName != "" {
		return validateName("spectatorName", r.SpectatorName)
	}
	return nil
}

// RoomKickRequest targets a spectator by the namespaced id they were
// broadcast under on spectator:joined (Identity.Key(), not a bare raw id) —
// a bare raw id is ambiguous across identity kinds.
type RoomKickRequest struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
}

func (r *RoomKickRequest) Validate() *Error {
	if r.RoomID == "" || r.TargetID == "" {
		return validationErr("roomId and targetId are required")
	}
	return nil
}

type RoomLockRequest struct {
	RoomID   string `json:"roomId"`
	Locked   bool   `json:"locked"`
	Password string `json:"password,omitempty"`
}

func (r *RoomLockRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	return nil
}

type RoomUpdateSettingsRequest struct {
	RoomID   string        `json:"roomId"`
	Settings *RoomSettings `json:"settings"`
}

func (r *RoomUpdateSettingsRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	return r.Settings.Validate()
}

type GameMoveRequest struct {
	RoomID    string `json:"roomId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (r *GameMoveRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	if err := validateSquare("from", r.From); err != nil {
		return err
	}
	if err := validateSquare("to", r.To); err != nil {
		return err
	}
	return validatePromotion(r.Promotion)
}

type RoomIDOnlyRequest struct {
	RoomID string `json:"roomId"`
}

func (r *RoomIDOnlyRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	return nil
}

const (
	ChatTypePublic  = "public"
	ChatTypePrivate = "private"
)

type ChatSendRequest struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	ChatType string `json:"chatType"`
}

func (r *ChatSendRequest) Validate() *Error {
	if r.RoomID == "" {
		return validationErr("roomId is required")
	}
	if len(r.Message) == 0 || len(r.Message) > maxMessageLen {
		return validationErr("message must be 1-%d characters", maxMessageLen)
	}
	switch r.ChatType {
	case ChatTypePublic, ChatTypePrivate:
	default:
		return validationErr("chatType must be public or private")
	}
	return nil
}
