// Package kvstash implements a stash on top of a key/value database. The
// contracts are stored in canonical CBOR, keyed by their identifier.
package kvstash

import (
	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/serde/cbor"
	"go.dedis.ch/rgbd/stash"
	"go.dedis.ch/rgbd/store/kv"
	"golang.org/x/xerrors"
)

var bucketName = []byte("rgbd-contracts")

// Stash is a stash persisted in a key/value database.
//
// - implements stash.Stash
type Stash struct {
	db kv.DB
}

// New returns a stash using the database.
func New(db kv.DB) *Stash {
	return &Stash{
		db: db,
	}
}

// Open opens or creates the database at the path and returns the stash.
func Open(path string) (*Stash, error) {
	db, err := kv.New(path)
	if err != nil {
		return nil, xerrors.Errorf("couldn't open database: %v", err)
	}

	return New(db), nil
}

// Store implements stash.Stash. It saves the contract or merges the history
// with the one already stored.
func (s *Stash) Store(c contract.Contract) (int, error) {
	added := 0

	err := s.db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(bucketName)
		if err != nil {
			return err
		}

		stored := c
		added = len(c.Transitions)

		data := bucket.Get(c.ID[:])
		if data != nil {
			err = cbor.Unmarshal(data, &stored)
			if err != nil {
				return xerrors.Errorf("couldn't decode contract: %v", err)
			}

			added = stored.Merge(c.Transitions)
			if added == 0 {
				return nil
			}
		}

		data, err = cbor.Marshal(stored)
		if err != nil {
			return xerrors.Errorf("couldn't encode contract: %v", err)
		}

		err = bucket.Set(c.ID[:], data)
		if err != nil {
			return xerrors.Errorf("couldn't write contract: %v", err)
		}

		tx.OnCommit(func() {
			rgbd.Logger.Debug().
				Str("contract", c.ID.String()).
				Int("transitions", len(stored.Transitions)).
				Msg("contract stored")
		})

		return nil
	})
	if err != nil {
		return 0, xerrors.Errorf("couldn't store contract: %v", err)
	}

	return added, nil
}

// Get implements stash.Stash. It returns the contract of the identifier.
func (s *Stash) Get(id contract.ContractID) (contract.Contract, error) {
	var c contract.Contract

	err := s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(bucketName)
		if bucket == nil {
			return stash.ErrNotFound
		}

		data := bucket.Get(id[:])
		if data == nil {
			return stash.ErrNotFound
		}

		return cbor.Unmarshal(data, &c)
	})
	if xerrors.Is(err, stash.ErrNotFound) {
		return c, stash.ErrNotFound
	}

	if err != nil {
		return c, xerrors.Errorf("couldn't read contract: %v", err)
	}

	return c, nil
}

// Has implements stash.Stash. It returns true if the contract is stored.
func (s *Stash) Has(id contract.ContractID) (bool, error) {
	found := false

	err := s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(bucketName)
		if bucket != nil {
			found = bucket.Get(id[:]) != nil
		}

		return nil
	})
	if err != nil {
		return false, xerrors.Errorf("couldn't read contract: %v", err)
	}

	return found, nil
}

// List implements stash.Stash. It returns the identifiers of the stored
// contracts in the order of the keys, which is ascending.
func (s *Stash) List() ([]contract.ContractID, error) {
	ids := []contract.ContractID{}

	err := s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(bucketName)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			if len(k) != contract.HashSize {
				return xerrors.Errorf("invalid key length %d", len(k))
			}

			var id contract.ContractID
			copy(id[:], k)

			ids = append(ids, id)

			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't list contracts: %v", err)
	}

	return ids, nil
}

// Close implements stash.Stash. It closes the database.
func (s *Stash) Close() error {
	return s.db.Close()
}
