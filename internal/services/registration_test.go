package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/models"
)

type fakeIdentities struct {
	created   map[string]string // id -> email
	deleted   []string
	deleteErr error
	next      int
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{created: map[string]string{}}
}

func (f *fakeIdentities) add(email string) *identity.Identity {
	f.next++
	id := "id-" + string(rune('0'+f.next))
	f.created[id] = email
	return &identity.Identity{ID: id, Email: email}
}

func (f *fakeIdentities) SignUp(_ context.Context, email, _ string, _ map[string]interface{}) (*identity.Identity, error) {
	return f.add(email), nil
}

func (f *fakeIdentities) CreateUser(_ context.Context, email, _ string, confirmed bool, _ map[string]interface{}) (*identity.Identity, error) {
	id := f.add(email)
	id.EmailConfirmed = confirmed
	return id, nil
}

func (f *fakeIdentities) DeleteUser(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.created, id)
	return nil
}

type fakeProfiles struct {
	users     map[string]*models.User
	insertErr error
}

func (f *fakeProfiles) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfiles) CreateUser(_ context.Context, u *models.User) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.users[u.ID] = u
	return nil
}

func setup() (*Registrar, *fakeIdentities, *fakeProfiles) {
	ids := newFakeIdentities()
	profiles := &fakeProfiles{users: map[string]*models.User{}}
	return NewRegistrar(ids, ids, profiles, 8, zerolog.Nop()), ids, profiles
}

func TestRegisterSuccess(t *testing.T) {
	r, ids, profiles := setup()

	user, err := r.Register(context.Background(), RegisterInput{
		Email: "  Alice@X.com ", Password: "password1", Name: "Alice",
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "alice@x.com" || user.Role != models.RoleClient {
		t.Errorf("user = %+v", user)
	}
	if len(ids.created) != 1 || profiles.users[user.ID] == nil {
		t.Errorf("identities %v, profiles %v", ids.created, profiles.users)
	}
}

func TestRegisterDuplicateEmailCreatesNothing(t *testing.T) {
	r, ids, profiles := setup()
	profiles.users["existing"] = &models.User{ID: "existing", Email: "a@x.com"}

	_, err := r.Register(context.Background(), RegisterInput{Email: "A@x.com", Password: "password1", Name: "A"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(ids.created) != 0 || len(profiles.users) != 1 {
		t.Errorf("identities %v, profiles %d", ids.created, len(profiles.users))
	}
}

func TestRegisterProfileFailureDeletesIdentity(t *testing.T) {
	r, ids, profiles := setup()
	profiles.insertErr = apperr.Upstream("Failed to create user", errors.New("connection reset"))

	_, err := r.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "password1", Name: "A"})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
	if len(ids.deleted) != 1 {
		t.Fatalf("deleted = %v, want one compensating delete", ids.deleted)
	}
	if len(ids.created) != 0 || len(profiles.users) != 0 {
		t.Errorf("leftovers: identities %v, profiles %v", ids.created, profiles.users)
	}
}

func TestRegisterCompensationRunsOnCancelledContext(t *testing.T) {
	r, ids, profiles := setup()
	profiles.insertErr = apperr.Conflict("User already exists")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = r.Register(ctx, RegisterInput{Email: "a@x.com", Password: "password1", Name: "A"})
	if len(ids.deleted) != 1 {
		t.Fatalf("deleted = %v", ids.deleted)
	}
}

func TestRegisterCompensationFailureKeepsOriginalError(t *testing.T) {
	r, ids, profiles := setup()
	profiles.insertErr = apperr.Conflict("User already exists")
	ids.deleteErr = errors.New("service key revoked")

	_, err := r.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "password1", Name: "A"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want the insert error", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "password1", Name: "A"}},
		{"short password", RegisterInput{Email: "a@x.com", Password: "pw12345", Name: "A"}},
		{"missing name", RegisterInput{Email: "a@x.com", Password: "password1"}},
		{"unknown role", RegisterInput{Email: "a@x.com", Password: "password1", Name: "A", Role: "driver"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ids, _ := setup()
			if _, err := r.Register(context.Background(), tt.in); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if len(ids.created) != 0 {
				t.Error("identity created for invalid input")
			}
		})
	}
}

func TestRegisterLegacyRoleStoredAsClient(t *testing.T) {
	r, _, _ := setup()
	user, err := r.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "password1", Name: "A", Role: "user"})
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleClient {
		t.Errorf("role = %q", user.Role)
	}
}

func TestProvisionConfirmsEmail(t *testing.T) {
	r, _, _ := setup()
	user, err := r.Provision(context.Background(), RegisterInput{Email: "root@x.com", Password: "password1", Name: "Root", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if !user.EmailConfirmed || user.Role != models.RoleAdmin {
		t.Errorf("user = %+v", user)
	}
}
