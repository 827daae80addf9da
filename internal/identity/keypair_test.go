package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// RFC 8032, тест 1
const (
	rfcSeed   = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfcPublic = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"
	rfcSecret = "AJ1hsZ3v/VpguoRK9JLsLMREScVpezJpGXA7rAMcrn9g"
	rfcAddr   = "0x304af458e90e97c841685b8cbbc59b909f3e2cf150df590ada4c81452c29737d"
)

func TestFromBase64_FlaggedSecret(t *testing.T) {
	kp, err := FromBase64(rfcSecret)
	require.NoError(t, err)
	assert.Equal(t, rfcPublic, hex.EncodeToString(kp.PublicKey()))
	assert.Equal(t, rfcAddr, kp.Address())
	assert.Equal(t, rfcSecret, kp.ExportBase64())
}

func TestFromSeed_SignVerify(t *testing.T) {
	seed, _ := hex.DecodeString(rfcSeed)
	kp, err := FromSeed(seed)
	require.NoError(t, err)
	sig := kp.Sign([]byte("msg"))
	assert.True(t, ed25519.Verify(kp.PublicKey(), []byte("msg"), sig))
}

func TestFromBase64_Errors(t *testing.T) {
	_, err := FromBase64("%%%")
	assert.Error(t, err)
	_, err = FromBase64("AQID") // 3 байта
	assert.Error(t, err)
	// 33 байта с чужим флагом схемы
	_, err = FromBase64("AZ1hsZ3v/VpguoRK9JLsLMREScVpezJpGXA7rAMcrn9g")
	assert.Error(t, err)
}

func TestLoad_FallsBackToGenerated(t *testing.T) {
	logger := zap.NewNop().Sugar()

	kp, err := Load(rfcSecret, logger)
	require.NoError(t, err)
	assert.Equal(t, rfcAddr, kp.Address())

	gen, err := Load("broken", logger)
	require.NoError(t, err)
	assert.NotEqual(t, rfcAddr, gen.Address())
	assert.Len(t, gen.Address(), 66)

	empty, err := Load("", logger)
	require.NoError(t, err)
	assert.NotEqual(t, gen.Address(), empty.Address())
}
