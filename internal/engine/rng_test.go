package engine

import (
	"context"
	"testing"
	"time"
)

func TestDrawFromSeeds(t *testing.T) {
	t.Run("draw within [0,1)", func(t *testing.T) {
		for nonce := 1; nonce <= 100; nonce++ {
			d := DrawFromSeeds("server_seed_abc", "client_seed_def", nonce)
			if d < 0 || d >= 1 {
				t.Errorf("draw %v at nonce %d outside [0,1)", d, nonce)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		d1 := DrawFromSeeds("server_seed_abc", "client_seed_def", 42)
		d2 := DrawFromSeeds("server_seed_abc", "client_seed_def", 42)
		if d1 != d2 {
			t.Errorf("same seeds and nonce produced %v and %v", d1, d2)
		}
	})

	t.Run("different nonces differ", func(t *testing.T) {
		d1 := DrawFromSeeds("server_seed_abc", "client_seed_def", 1)
		d2 := DrawFromSeeds("server_seed_abc", "client_seed_def", 2)
		if d1 == d2 {
			t.Error("different nonces produced identical draws (unlikely)")
		}
	})
}

func TestVerifyDraw(t *testing.T) {
	d := DrawFromSeeds("verify_server", "verify_client", 7)

	if !VerifyDraw("verify_server", "verify_client", 7, d) {
		t.Error("correct claim rejected")
	}
	if VerifyDraw("verify_server", "verify_client", 7, d+0.1) {
		t.Error("wrong claim accepted")
	}
	if VerifyDraw("other_server", "verify_client", 7, d) {
		t.Error("wrong server seed accepted")
	}
}

func TestGenerateSeed(t *testing.T) {
	seed1 := GenerateSeed()
	seed2 := GenerateSeed()

	if seed1 == seed2 {
		t.Error("GenerateSeed() produced duplicate seeds")
	}
	if len(seed1) != 64 { // 32 bytes = 64 hex characters
		t.Errorf("GenerateSeed() length = %v, want 64", len(seed1))
	}
}

func TestHashCommitment(t *testing.T) {
	hash1 := HashCommitment("seed_12345")
	hash2 := HashCommitment("seed_12345")

	if hash1 != hash2 {
		t.Error("HashCommitment() is not deterministic")
	}
	if len(hash1) != 64 { // SHA256 = 64 hex characters
		t.Errorf("HashCommitment() length = %v, want 64", len(hash1))
	}
}

func TestCommittedSource(t *testing.T) {
	t.Run("nonce advances per draw", func(t *testing.T) {
		src := NewCommittedSource("client_seed")
		src.Draw()
		src.Draw()
		if src.Nonce() != 2 {
			t.Errorf("nonce = %d, want 2", src.Nonce())
		}
	})

	t.Run("draws are reproducible after reveal", func(t *testing.T) {
		src := NewCommittedSource("client_seed")
		d := src.Draw()
		if !VerifyDraw(src.ServerSeed, src.ClientSeed, src.Nonce(), d) {
			t.Error("revealed seeds do not reproduce the draw")
		}
	})

	t.Run("commitment matches server seed", func(t *testing.T) {
		src := NewCommittedSource("")
		if src.Commitment() != HashCommitment(src.ServerSeed) {
			t.Error("commitment does not hash the server seed")
		}
	})
}

func TestSeededSource(t *testing.T) {
	a := NewSeededSource(99)
	b := NewSeededSource(99)

	for i := 0; i < 50; i++ {
		da, db := a.Draw(), b.Draw()
		if da != db {
			t.Fatalf("seeded sources diverged at draw %d: %v vs %v", i, da, db)
		}
		if da < 0 || da >= 1 {
			t.Fatalf("draw %v outside [0,1)", da)
		}
	}
}

func TestCryptoSource_Range(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		d := src.Draw()
		if d < 0 || d >= 1 {
			t.Fatalf("draw %v outside [0,1)", d)
		}
	}
}

func TestCrashPoint(t *testing.T) {
	t.Run("house edge forces instant crash", func(t *testing.T) {
		if got := CrashPoint(0.001); got != MinCrashMultiplier {
			t.Errorf("CrashPoint(0.001) = %v, want %v", got, MinCrashMultiplier)
		}
	})

	t.Run("clamped to valid range", func(t *testing.T) {
		for _, draw := range []float64{0.0, 0.01, 0.5, 0.9, 0.99, 0.999999} {
			got := CrashPoint(draw)
			if got < MinCrashMultiplier || got > MaxCrashMultiplier {
				t.Errorf("CrashPoint(%v) = %v outside [%v, %v]", draw, got, MinCrashMultiplier, MaxCrashMultiplier)
			}
		}
	})

	t.Run("monotone in the draw", func(t *testing.T) {
		if CrashPoint(0.5) >= CrashPoint(0.9) {
			t.Error("higher draws should map to higher crash points")
		}
	})

	t.Run("median draw near 2x", func(t *testing.T) {
		got := CrashPoint(0.5)
		if got < 1.8 || got > 2.2 {
			t.Errorf("CrashPoint(0.5) = %v, want around 2", got)
		}
	})
}

func TestDrawWithTimeout(t *testing.T) {
	t.Run("delivers oracle draw", func(t *testing.T) {
		draws := make(chan float64, 1)
		draws <- 0.42

		d, err := DrawWithTimeout(context.Background(), draws)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 0.42 {
			t.Errorf("draw = %v, want 0.42", d)
		}
	})

	t.Run("stuck oracle surfaces ErrOracleTimeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := DrawWithTimeout(ctx, make(chan float64))
		if err != ErrOracleTimeout {
			t.Errorf("err = %v, want ErrOracleTimeout", err)
		}
	})
}
