// One-off: re-encrypt every stored amount from an old master key to a new one.
// The data directory must not be in use by a running server. Safe to re-run
// after a partial rotation: amounts already under the new key are skipped.
// Usage: OLD_ENCRYPTION_MASTER_KEY=<hex> ENCRYPTION_MASTER_KEY=<hex> DATA_DIR=./data go run ./cmd/rotate_master_key
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlexZinkM/confidential-pay/internal/config"
	"github.com/AlexZinkM/confidential-pay/internal/crypto"
	"github.com/AlexZinkM/confidential-pay/internal/model"
	"github.com/AlexZinkM/confidential-pay/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	if err := config.Init(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	oldCodec, err := codecFromHex(os.Getenv("OLD_ENCRYPTION_MASTER_KEY"))
	if err != nil {
		log.WithError(err).Fatal("invalid OLD_ENCRYPTION_MASTER_KEY")
	}
	newMaster, err := config.LoadMasterKey()
	if err != nil {
		log.WithError(err).Fatal("invalid ENCRYPTION_MASTER_KEY")
	}
	newCodec, err := crypto.NewCodec(newMaster)
	clear(newMaster)
	if err != nil {
		log.WithError(err).Fatal("failed to create codec")
	}

	intentStore, err := store.NewIntentStore(store.StoreConfig{Path: config.GetDataDir(), Logger: log})
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer intentStore.Close()

	ctx := context.Background()
	intents, total, err := intentStore.ListIntents(ctx, model.IntentFilter{})
	if err != nil {
		log.WithError(err).Fatal("failed to list intents")
	}

	var rotated, skipped, failed int
	for _, intent := range intents {
		changed := false
		_, err := intentStore.UpdateIntentStatus(ctx, intent.ID, func(p *model.PaymentIntent) error {
			owner := p.KeyOwner()
			amount, amountChanged, err := oldCodec.RotateTo(newCodec, p.AmountCommitment, owner)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			p.AmountCommitment = amount
			changed = amountChanged

			if p.ResultCommitment != "" {
				result, resultChanged, err := oldCodec.RotateTo(newCodec, p.ResultCommitment, owner)
				if err != nil {
					return fmt.Errorf("result: %w", err)
				}
				p.ResultCommitment = result
				changed = changed || resultChanged
			}
			return nil
		})
		if err != nil {
			failed++
			log.WithError(err).WithField("intent", intent.ID).Error("failed to rotate intent")
			continue
		}
		if changed {
			rotated++
		} else {
			skipped++
		}
	}

	log.WithFields(logrus.Fields{"total": total, "rotated": rotated, "skipped": skipped, "failed": failed}).Info("master key rotation finished")
	if failed > 0 {
		os.Exit(1)
	}
}

func codecFromHex(keyHex string) (*crypto.Codec, error) {
	master, err := config.ParseMasterKey(keyHex)
	if err != nil {
		return nil, err
	}
	defer clear(master)
	return crypto.NewCodec(master)
}
