package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"intentId":"i1","orderId":"o1","amount":1000}`)
	good := SignHex(body, "s3cret")

	assert.True(t, VerifySignature(body, good, "s3cret"))
	assert.False(t, VerifySignature(body, good, "other"))
	assert.False(t, VerifySignature([]byte(`{"intentId":"i2"}`), good, "s3cret"))
	assert.False(t, VerifySignature(body, "", "s3cret"))
	assert.False(t, VerifySignature(body, good, ""))
	assert.False(t, VerifySignature(body, "not-hex", "s3cret"))
	assert.False(t, VerifySignature(body, good[:10], "s3cret"))
}
