package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// memberDoc is the stored form of organizations/{org}/users/{uid}.
type memberDoc struct {
	UID       string    `firestore:"uid"`
	FirstName string    `firestore:"firstName"`
	LastName  string    `firestore:"lastName"`
	Email     string    `firestore:"email"`
	Role      string    `firestore:"role"`
	JoinedOn  string    `firestore:"joinedOn"`
	JoinedAt  time.Time `firestore:"joinedAt"`
}

type emailDoc struct {
	UID string `firestore:"uid"`
}

// UserFirestore implements repository.UserRepository. Email uniqueness is
// enforced through an emails/{lowercase email} index document.
type UserFirestore struct {
	client *firestore.Client
	now    func() time.Time
}

func NewUserFirestore(client *firestore.Client) *UserFirestore {
	return &UserFirestore{client: client, now: time.Now}
}

var _ repository.UserRepository = (*UserFirestore)(nil)

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserFirestore) Create(ctx context.Context, u *model.User) (*model.User, error) {
	out := *u
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		emailRef := r.client.Collection(colEmails).Doc(emailKey(out.Email))
		if _, err := tx.Get(emailRef); err == nil {
			return repository.ErrConflict
		} else if !isNotFound(err) {
			return err
		}

		oref := orgRef(r.client, out.Organization)
		_, err := tx.Get(oref)
		switch {
		case err == nil:
			out.Role = model.RoleMember
		case isNotFound(err):
			out.Role = model.RoleAdmin
			if err := tx.Create(oref, model.Organization{Name: out.Organization}); err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Create(emailRef, emailDoc{UID: out.UID}); err != nil {
			return err
		}
		if err := tx.Create(r.client.Collection(colUsers).Doc(out.UID), out); err != nil {
			return err
		}
		return tx.Set(memberRef(r.client, out.Organization, out.UID), memberDoc{
			UID:       out.UID,
			FirstName: out.FirstName,
			LastName:  out.LastName,
			Email:     out.Email,
			Role:      out.Role,
			JoinedOn:  out.JoinedOn,
			JoinedAt:  r.now(),
		})
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *UserFirestore) FindByID(ctx context.Context, uid string) (*model.User, error) {
	snap, err := r.client.Collection(colUsers).Doc(uid).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (r *UserFirestore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	snap, err := r.client.Collection(colEmails).Doc(emailKey(email)).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var e emailDoc
	if err := snap.DataTo(&e); err != nil {
		return nil, fmt.Errorf("decode email index: %w", err)
	}
	return r.FindByID(ctx, e.UID)
}

func (r *UserFirestore) UpdateProfile(ctx context.Context, uid, firstName, lastName string) (*model.User, error) {
	var out model.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(colUsers).Doc(uid)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := snap.DataTo(&out); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		out.FirstName, out.LastName = firstName, lastName

		updates := []firestore.Update{
			{Path: "firstName", Value: firstName},
			{Path: "lastName", Value: lastName},
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}
		return tx.Update(memberRef(r.client, out.Organization, uid), updates)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *UserFirestore) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	_, err := r.client.Collection(colUsers).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "passwordHash", Value: passwordHash},
	})
	return mapErr(err)
}

func (r *UserFirestore) ListMembers(ctx context.Context, org string) ([]model.Member, error) {
	snaps, err := orgRef(r.client, org).Collection(colUsers).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]memberDoc, 0, len(snaps))
	for _, s := range snaps {
		var m memberDoc
		if err := s.DataTo(&m); err != nil {
			return nil, fmt.Errorf("decode member %s: %w", s.Ref.ID, err)
		}
		docs = append(docs, m)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		ai, aj := docs[i].Role == model.RoleAdmin, docs[j].Role == model.RoleAdmin
		if ai != aj {
			return ai
		}
		return docs[i].JoinedAt.Before(docs[j].JoinedAt)
	})

	members := make([]model.Member, 0, len(docs))
	for _, m := range docs {
		members = append(members, model.Member{
			UID:       m.UID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Email:     m.Email,
			Role:      m.Role,
			JoinedOn:  m.JoinedOn,
		})
	}
	return members, nil
}
