package kv

import (
	"fmt"
	"os"
	"path/filepath"
)

func ExampleBucket_ForEach() {
	dir, err := os.MkdirTemp(os.TempDir(), "example")
	if err != nil {
		panic("failed to create folder: " + err.Error())
	}

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "stash.db"))
	if err != nil {
		panic("failed to open db: " + err.Error())
	}

	defer db.Close()

	tickers := map[string]string{"c2": "EUR", "c1": "USDT", "c3": "CHF"}

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("contracts"))
		if err != nil {
			return err
		}

		for id, ticker := range tickers {
			err = bucket.Set([]byte(id), []byte(ticker))
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		panic("database write failed: " + err.Error())
	}

	err = db.View(func(tx ReadableTx) error {
		return tx.GetBucket([]byte("contracts")).ForEach(func(key, value []byte) error {
			fmt.Printf("%s=%s\n", key, value)
			return nil
		})
	})
	if err != nil {
		panic("database read failed: " + err.Error())
	}

	// Output: c1=USDT
	// c2=EUR
	// c3=CHF
}
