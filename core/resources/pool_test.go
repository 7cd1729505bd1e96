package resources

import "testing"

func TestErgsPoolAddAndSub(t *testing.T) {
	var p ErgsPool
	p.AddGas(100)
	if p.Gas() != 100 {
		t.Fatalf("Gas() = %d, want 100", p.Gas())
	}
	if err := p.SubGas(40); err != nil {
		t.Fatalf("SubGas: %v", err)
	}
	if p.Gas() != 60 {
		t.Fatalf("Gas() = %d, want 60", p.Gas())
	}
}

func TestErgsPoolSubGasInsufficient(t *testing.T) {
	var p ErgsPool
	p.AddGas(10)
	if err := p.SubGas(11); err == nil {
		t.Fatal("SubGas should fail when pool is insufficient")
	}
	if p.Gas() != 10 {
		t.Fatalf("failed SubGas must not mutate the pool, got %d", p.Gas())
	}
}

func TestErgsPoolAddOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AddGas should panic on overflow")
		}
	}()
	p := ErgsPool(^uint64(0))
	p.AddGas(1)
}

func TestPubdataCounterChargeAndRemaining(t *testing.T) {
	c := NewPubdataCounter(100)
	if err := c.Charge(40); err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if c.Used() != 40 || c.Remaining() != 60 {
		t.Fatalf("used=%d remaining=%d, want 40/60", c.Used(), c.Remaining())
	}
	if err := c.Charge(61); err == nil {
		t.Fatal("Charge should fail past the limit")
	}
	if c.Used() != 40 {
		t.Fatalf("failed Charge must not mutate used, got %d", c.Used())
	}
}
