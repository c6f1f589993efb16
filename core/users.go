package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/outwriter"
	"github.com/huangsam/gitpulse/schema"
	"gopkg.in/yaml.v3"
)

// usersFile is the mapping form of a users file.
type usersFile struct {
	Users []schema.RegisteredUser `yaml:"users"`
}

// ParseUsers decodes a registered-user directory. The document is either a list of
// users or a mapping with a "users" list.
func ParseUsers(r io.Reader) ([]schema.RegisteredUser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var users []schema.RegisteredUser
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&users); err != nil {
			return nil, fmt.Errorf("failed to parse users file: %w", err)
		}
	case yaml.MappingNode:
		var f usersFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse users file: %w", err)
		}
		users = f.Users
	default:
		return nil, fmt.Errorf("users file must be a list or a mapping with a users key")
	}

	if err := validateUsers(users); err != nil {
		return nil, err
	}
	return users, nil
}

func validateUsers(users []schema.RegisteredUser) error {
	seen := make(map[int64]struct{}, len(users))
	for i, u := range users {
		if u.ID <= 0 {
			return fmt.Errorf("user %d: id must be greater than 0 (received %d)", i+1, u.ID)
		}
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("user %d: username is required", i+1)
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("user %d: duplicate id %d", i+1, u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}

// ExecuteUsersImport loads a users file into the record store.
func ExecuteUsersImport(ctx context.Context, mgr contract.StoreManager, path string) error {
	store := mgr.GetRecordStore()
	if store == nil {
		return errNoRecordStore
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open users file: %w", err)
	}
	defer func() { _ = f.Close() }()

	users, err := ParseUsers(f)
	if err != nil {
		return err
	}
	if err := store.SaveUsers(ctx, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	fmt.Printf("✅ Imported %d users from %s\n", len(users), path)
	return nil
}

// ExecuteUsersList prints the registered users of the record store.
func ExecuteUsersList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	store := mgr.GetRecordStore()
	if store == nil {
		return errNoRecordStore
	}
	users, err := store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	return outwriter.WriteUsers(users, cfg, time.Since(start))
}
