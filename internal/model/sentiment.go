package model

// SentimentLabel はセンチメント分類のラベルを表す。
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

// SentimentResult はセンチメントモデルの出力を表す。
// 入力テキストのハッシュをキーにキャッシュされ、一度計算されたら不変。
type SentimentResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"` // [0,1]
	ModelID    string         `json:"model_id"`
}

// SummaryProvenance は要約結果の生成由来を表す。
type SummaryProvenance string

const (
	// ProvenanceCache はキャッシュ済みの結果を返したことを示す。
	ProvenanceCache SummaryProvenance = "cache"
	// ProvenanceGenerated は要約器が新規に生成したことを示す。
	ProvenanceGenerated SummaryProvenance = "generated"
	// ProvenanceDescription はペイウォール等により記事説明文へフォールバックしたことを示す。
	ProvenanceDescription SummaryProvenance = "description_fallback"
	// ProvenancePlaceholder は要約可能なテキストが一切なかったことを示す。
	ProvenancePlaceholder SummaryProvenance = "placeholder"
)

// SummaryResult は要約の取得結果を表す。
// 記事URLから導出したキーでキャッシュされる。
type SummaryResult struct {
	Summary    string            `json:"summary"`
	Provenance SummaryProvenance `json:"source"`
}

// IsFallback は要約が新規生成・キャッシュ以外の由来かを返す。
func (r SummaryResult) IsFallback() bool {
	return r.Provenance == ProvenanceDescription || r.Provenance == ProvenancePlaceholder
}
