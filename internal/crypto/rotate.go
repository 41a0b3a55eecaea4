package crypto

// Reencrypt decrypts a base64 ciphertext with c and encrypts the same amount
// for the same userID with next. It is used when rotating the master key.
func (c *Codec) Reencrypt(next *Codec, encoded, userID string) (string, error) {
	value, err := c.DecryptU64String(encoded, userID)
	if err != nil {
		return "", err
	}
	return next.EncryptU64String(value, userID)
}

// RotateTo is Reencrypt that tolerates a previous partial rotation: a
// ciphertext next can already open is returned unchanged with changed set
// to false.
func (c *Codec) RotateTo(next *Codec, encoded, userID string) (rotated string, changed bool, err error) {
	if _, err := next.DecryptU64String(encoded, userID); err == nil {
		return encoded, false, nil
	}
	rotated, err = c.Reencrypt(next, encoded, userID)
	if err != nil {
		return "", false, err
	}
	return rotated, true, nil
}
