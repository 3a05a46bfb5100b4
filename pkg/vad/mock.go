package vad

// MockClassifier is a mock implementation of Classifier for testing.
// It allows customizing the behavior of Classify through the ClassifyFunc
// field.
type MockClassifier struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, Classify returns false (no speech).
	ClassifyFunc func(frame []int16) (bool, error)

	// ClassifyCalls counts the calls to Classify for verification.
	ClassifyCalls int

	// ResetCalled tracks if Reset was called.
	ResetCalled bool

	// DestroyCalled tracks if Destroy was called.
	DestroyCalled bool
}

// NewMockClassifier creates a MockClassifier with default behavior.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// NewMockClassifierWithResult creates a MockClassifier that always reports
// the given result.
func NewMockClassifierWithResult(speech bool) *MockClassifier {
	return &MockClassifier{
		ClassifyFunc: func(frame []int16) (bool, error) {
			return speech, nil
		},
	}
}

// NewMockClassifierWithSequence creates a MockClassifier that reports the
// given results in order. After the sequence is exhausted it keeps
// returning the last result.
func NewMockClassifierWithSequence(results []bool) *MockClassifier {
	idx := 0
	return &MockClassifier{
		ClassifyFunc: func(frame []int16) (bool, error) {
			if len(results) == 0 {
				return false, nil
			}
			r := results[idx]
			if idx < len(results)-1 {
				idx++
			}
			return r, nil
		},
	}
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(frame []int16) (bool, error) {
	m.ClassifyCalls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(frame)
	}
	return false, nil
}

// Reset implements Classifier.
func (m *MockClassifier) Reset() error {
	m.ResetCalled = true
	return nil
}

// Destroy implements Classifier.
func (m *MockClassifier) Destroy() error {
	m.DestroyCalled = true
	return nil
}
