package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// DocumentFirestore implements repository.DocumentRepository and
// repository.OrganizationRepository on Firestore transactions.
type DocumentFirestore struct {
	client *firestore.Client
}

func NewDocumentFirestore(client *firestore.Client) *DocumentFirestore {
	return &DocumentFirestore{client: client}
}

var (
	_ repository.DocumentRepository     = (*DocumentFirestore)(nil)
	_ repository.OrganizationRepository = (*DocumentFirestore)(nil)
)

func (r *DocumentFirestore) Get(ctx context.Context, name string) (*model.Organization, error) {
	snap, err := orgRef(r.client, name).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var o model.Organization
	if err := snap.DataTo(&o); err != nil {
		return nil, fmt.Errorf("decode organization: %w", err)
	}
	o.Name = name
	return &o, nil
}

// Commit creates images/{id} and {monthIndex}/{id} and increments imageCount in one transaction.
func (r *DocumentFirestore) Commit(ctx context.Context, doc *model.Document) (int64, error) {
	var count int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := orgRef(r.client, doc.Organization)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var org model.Organization
		if err := snap.DataTo(&org); err != nil {
			return fmt.Errorf("decode organization: %w", err)
		}
		count = org.ImageCount + 1

		if err := tx.Create(imageRef(r.client, doc.Organization, doc.ID), doc); err != nil {
			return err
		}
		if err := tx.Create(bucketRef(r.client, doc.Organization, doc.MonthIndex, doc.ID), doc); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{{Path: "imageCount", Value: firestore.Increment(1)}})
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *DocumentFirestore) FindByID(ctx context.Context, org, id string) (*model.Document, error) {
	snaps, err := r.client.GetAll(ctx, []*firestore.DocumentRef{
		imageRef(r.client, org, id),
		orgRef(r.client, org),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	if !snaps[0].Exists() {
		return nil, repository.ErrNotFound
	}
	d, err := decodeDocument(snaps[0])
	if err != nil {
		return nil, err
	}
	if snaps[1].Exists() {
		selected, _ := snaps[1].DataAt("selectedDocId")
		d.Priority = selected == id
	}
	return &d, nil
}

// List loads the whole images collection and orders it in memory; Firestore
// cannot sort DD/MM/YYYY strings chronologically.
func (r *DocumentFirestore) List(ctx context.Context, org string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	o, err := r.Get(ctx, org)
	if err != nil {
		return nil, err
	}
	snaps, err := orgRef(r.client, org).Collection(colImages).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	all := make([]model.Document, 0, len(snaps))
	for _, s := range snaps {
		d, err := decodeDocument(s)
		if err != nil {
			return nil, err
		}
		d.Priority = d.ID == o.SelectedDocID
		all = append(all, d)
	}
	model.SortByEventDate(all)

	items := make([]model.Document, 0)
	if pq.Offset < len(all) {
		end := len(all)
		if pq.Limit > 0 && pq.Offset+pq.Limit < end {
			end = pq.Offset + pq.Limit
		}
		items = append(items, all[pq.Offset:end]...)
	}
	return &repository.PageResult[model.Document]{Items: items, Total: len(all)}, nil
}

func (r *DocumentFirestore) Count(ctx context.Context, org string) (int, error) {
	return count(ctx, orgRef(r.client, org).Collection(colImages).Query)
}

func (r *DocumentFirestore) CountMonth(ctx context.Context, org string, monthIndex int) (int, error) {
	return count(ctx, bucketCollection(r.client, org, monthIndex).Query)
}

// CountByStoragePath queries every organizations/{org}/images collection.
// Month buckets live in collections named by month index and are not counted.
func (r *DocumentFirestore) CountByStoragePath(ctx context.Context, storagePath string) (int, error) {
	q := r.client.CollectionGroup(colImages).Where("storagePath", "==", storagePath)
	return count(ctx, q)
}

func (r *DocumentFirestore) Select(ctx context.Context, org, id string) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(imageRef(r.client, org, id)); err != nil {
			return err
		}
		return tx.Update(orgRef(r.client, org), []firestore.Update{{Path: "selectedDocId", Value: id}})
	})
	return mapErr(err)
}

func (r *DocumentFirestore) Delete(ctx context.Context, org, id string) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := imageRef(r.client, org, id)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		d, err := decodeDocument(snap)
		if err != nil {
			return err
		}
		oref := orgRef(r.client, org)
		osnap, err := tx.Get(oref)
		if err != nil && !isNotFound(err) {
			return err
		}

		if err := tx.Delete(ref); err != nil {
			return err
		}
		if err := tx.Delete(bucketRef(r.client, org, d.MonthIndex, id)); err != nil {
			return err
		}
		if osnap != nil && osnap.Exists() {
			if selected, _ := osnap.DataAt("selectedDocId"); selected == id {
				return tx.Update(oref, []firestore.Update{{Path: "selectedDocId", Value: ""}})
			}
		}
		return nil
	})
	return mapErr(err)
}

func decodeDocument(s *firestore.DocumentSnapshot) (model.Document, error) {
	var d model.Document
	if err := s.DataTo(&d); err != nil {
		return d, fmt.Errorf("decode document %s: %w", s.Ref.ID, err)
	}
	if d.ID == "" {
		d.ID = s.Ref.ID
	}
	return d, nil
}

func count(ctx context.Context, q firestore.Query) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}
