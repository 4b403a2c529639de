package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomSuite  RoomType = "SUITE"
)

// RoomTypes lists the closed set of bookable room types.
var RoomTypes = []RoomType{RoomSingle, RoomDouble, RoomSuite}

func (t RoomType) Valid() bool {
	switch t {
	case RoomSingle, RoomDouble, RoomSuite:
		return true
	}
	return false
}

type Room struct {
	Type     RoomType `json:"type" validate:"required"`
	Quantity int      `json:"quantity" validate:"gte=0"`
}

// Rooms is persisted as a JSON string. Readers must accept both that string form and a
// plain JSON array, so every decode goes through ParseRooms.
type Rooms []Room

var ErrRoomsEncoding = errors.New("rooms: unsupported encoding")

// ParseRooms decodes a JSON array of rooms, or a JSON string whose content is such an array.
// Empty input and JSON null decode to an empty slice.
func ParseRooms(data []byte) (Rooms, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Rooms{}, nil
	}

	switch data[0] {
	case '[':
		var rooms []Room
		if err := json.Unmarshal(data, &rooms); err != nil {
			return nil, fmt.Errorf("decode rooms array: %w", err)
		}
		return Rooms(rooms), nil
	case '"':
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode rooms string: %w", err)
		}
		inner = strings.TrimSpace(inner)
		if strings.HasPrefix(inner, `"`) {
			// only one level of string wrapping is accepted
			return nil, ErrRoomsEncoding
		}
		return ParseRooms([]byte(inner))
	}

	return nil, ErrRoomsEncoding
}

// Encode returns the storage form: a JSON array rendered as a string.
func (r Rooms) Encode() (string, error) {
	if r == nil {
		r = Rooms{}
	}
	b, err := json.Marshal([]Room(r))
	if err != nil {
		return "", fmt.Errorf("encode rooms: %w", err)
	}
	return string(b), nil
}

func (r *Rooms) UnmarshalJSON(data []byte) error {
	rooms, err := ParseRooms(data)
	if err != nil {
		return err
	}
	*r = rooms
	return nil
}

func (r Rooms) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Room(r))
}

// Scan implements sql.Scanner for text/json columns.
func (r *Rooms) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = Rooms{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan rooms from %T: %w", src, ErrRoomsEncoding)
	}

	rooms, err := ParseRooms(data)
	if err != nil {
		return err
	}
	*r = rooms
	return nil
}

// Value implements driver.Valuer.
func (r Rooms) Value() (driver.Value, error) {
	return r.Encode()
}
