package store

import "testing"

func TestStatusTraits(t *testing.T) {
	releasing := map[string]bool{
		StatusCanceled: true,
		StatusReturned: true,
	}

	for name := range statusTraitTable {
		traits := traitsOf(name)
		if traits.ReleasesStock != releasing[name] {
			t.Errorf("%s: ReleasesStock = %v, want %v", name, traits.ReleasesStock, releasing[name])
		}
		if traits.Deletable != releasing[name] {
			t.Errorf("%s: Deletable = %v, want %v", name, traits.Deletable, releasing[name])
		}
	}
}

func TestTraitsOfUnknownStatus(t *testing.T) {
	traits := traitsOf("Archived")
	if traits.ReleasesStock || traits.Deletable {
		t.Errorf("Unknown status must have zero traits, got %+v", traits)
	}
}

func TestCancelBlocked(t *testing.T) {
	blocked := []string{StatusDelivered, StatusCompleted}
	for _, name := range blocked {
		if !cancelBlocked(name) {
			t.Errorf("%s should block cancellation", name)
		}
	}

	allowed := []string{StatusCreated, StatusPaid, StatusProcessing, StatusShipped, StatusCanceled, StatusReturned}
	for _, name := range allowed {
		if cancelBlocked(name) {
			t.Errorf("%s should not block cancellation", name)
		}
	}
}
