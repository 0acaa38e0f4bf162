package timeout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNeverNeverExpires(t *testing.T) {
	sig := Never()
	assert.False(t, sig.Soft())
	assert.False(t, sig.Hard())
}

func TestZeroDurationMeansNoBudget(t *testing.T) {
	sig := New(0, 0)
	assert.False(t, sig.Soft())
	assert.False(t, sig.Hard())
}

func TestSoftExpiresBeforeHard(t *testing.T) {
	sig := New(1*time.Millisecond, time.Hour)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, sig.Soft())
	assert.False(t, sig.Hard())
}

func TestBothExpireOnceHardDeadlinePasses(t *testing.T) {
	sig := New(1*time.Millisecond, 2*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, sig.Soft())
	assert.True(t, sig.Hard())
}
