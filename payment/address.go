package payment

import (
	"github.com/gagliardetto/solana-go"
)

// isValidSolanaAddress validates a Solana address
func isValidSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}
