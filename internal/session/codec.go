package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/models"
)

// Namespace is the name stored in every persisted snapshot.
const Namespace = "auth-storage"

// SchemaVersion is the current persisted snapshot version.
const SchemaVersion = 1

// ErrSchemaVersion indicates a persisted snapshot this build cannot read.
var ErrSchemaVersion = errors.New("unsupported session schema")

// persisted is the on-disk document. Only the three session fields are kept;
// the loading flag is never persisted.
type persisted struct {
	Name    string         `json:"name"`
	Version int            `json:"version"`
	State   persistedState `json:"state"`
}

type persistedState struct {
	User            *models.User `json:"user"`
	Token           *string      `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Encode serializes a session snapshot.
func Encode(s Session) ([]byte, error) {
	doc := persisted{
		Name:    Namespace,
		Version: SchemaVersion,
		State: persistedState{
			User:            s.User,
			IsAuthenticated: s.IsAuthenticated,
		},
	}
	if s.Token != "" {
		tok := s.Token
		doc.State.Token = &tok
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode parses a persisted snapshot. The authenticated flag survives only
// when it was persisted as true together with a user and a token.
func Decode(data []byte) (Session, error) {
	var doc persisted
	if err := json.Unmarshal(data, &doc); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if doc.Name != Namespace || doc.Version != SchemaVersion {
		return Session{}, fmt.Errorf("%w: %q v%d", ErrSchemaVersion, doc.Name, doc.Version)
	}

	st := doc.State
	if !st.IsAuthenticated || !st.User.Valid() || st.Token == nil || *st.Token == "" {
		return Session{}, nil
	}
	return Session{User: st.User, Token: *st.Token, IsAuthenticated: true}, nil
}
