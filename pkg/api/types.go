package api

// Peak is one grouped signal.
type Peak struct {
	MZ        float64 `json:"mz"`
	Intensity float64 `json:"intensity"`
}

// Annotation is the wire form of a candidate identification.
type Annotation struct {
	Name        string  `json:"name,omitempty"`
	Class       string  `json:"class,omitempty"`
	Carbons     *int    `json:"carbons,omitempty"`
	DoubleBonds *int    `json:"double_bonds,omitempty"`
	MZ          float64 `json:"mz"`
	Intensity   float64 `json:"intensity,omitempty"`
	RTMin       float64 `json:"rt_min"`
	IonMode     string  `json:"ion_mode,omitempty"` // defaults to positive
	Adduct      string  `json:"adduct,omitempty"`
	Peaks       []Peak  `json:"peaks,omitempty"`
}

// ScoredAnnotation is an annotation with its elution-order score.
type ScoredAnnotation struct {
	Name               string  `json:"name"`
	Class              string  `json:"class"`
	Carbons            int     `json:"carbons"`
	DoubleBonds        int     `json:"double_bonds"`
	MZ                 float64 `json:"mz"`
	RTMin              float64 `json:"rt_min"`
	Adduct             string  `json:"adduct,omitempty"`
	Score              int     `json:"score"`
	ComparisonsApplied int     `json:"comparisons_applied"`
	NormalizedScore    float64 `json:"normalized_score"`
}

// Adduct describes one catalog entry.
type Adduct struct {
	Notation  string  `json:"notation"`
	MassShift float64 `json:"mass_shift"`
	Multimer  int     `json:"multimer"`
	Charge    int     `json:"charge"`
}

// AdductsResponse is the response body for GET /adducts/{mode}.
type AdductsResponse struct {
	Mode    string   `json:"mode"`
	Adducts []Adduct `json:"adducts"`
}

// DetectResponse is the response body for POST /adducts/detect.
type DetectResponse struct {
	Matched     bool    `json:"matched"`
	Adduct      string  `json:"adduct,omitempty"`
	Partner     string  `json:"partner,omitempty"`
	BaseMZ      float64 `json:"base_mz,omitempty"`
	PartnerMZ   float64 `json:"partner_mz,omitempty"`
	NeutralMass float64 `json:"neutral_mass,omitempty"`
	PPM         int     `json:"ppm,omitempty"`
}

// ScoreRequest is the request body for POST /score.
type ScoreRequest struct {
	Annotations  []Annotation `json:"annotations"`
	InferAdducts bool         `json:"infer_adducts"`
}

// Summary is the wire form of a scoring summary.
type Summary struct {
	Annotations int            `json:"annotations"`
	Pairs       int            `json:"pairs"`
	Matches     int            `json:"matches"`
	Compared    int            `json:"compared"`
	Labelled    int            `json:"labelled"`
	RuleHits    map[string]int `json:"rule_hits"`
}

// ScoreResponse is the response body for POST /score.
type ScoreResponse struct {
	Annotations []ScoredAnnotation `json:"annotations"`
	Summary     Summary            `json:"summary"`
	LatencyMs   float64            `json:"latency_ms"`
}

// HealthResponse is the response body for health check.
type HealthResponse struct {
	Status string `json:"status"`
	Rules  int    `json:"rules"`
}

// ErrorResponse carries a request failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
