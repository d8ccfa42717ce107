package auth

import (
	"context"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier delegates password checks to Supabase Auth.
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(url, key string) (*SupabaseVerifier, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, err
	}
	return &SupabaseVerifier{client: client}, nil
}

func (v *SupabaseVerifier) Verify(ctx context.Context, email, password string) error {
	_, err := v.client.Auth.SignInWithEmailPassword(email, password)
	return err
}

func (v *SupabaseVerifier) Register(ctx context.Context, email, password string) error {
	_, err := v.client.Auth.Signup(types.SignupRequest{Email: email, Password: password})
	return err
}
