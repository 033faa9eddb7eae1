package mapping

// Header keywords, compared against width-folded, lower-cased headers.
var (
	DateKeywords   = []string{"日付", "年月日", "取引日", "振込日", "入金日", "処理日", "受付日", "date"}
	YearKeywords   = []string{"年", "year"}
	MonthKeywords  = []string{"月", "month"}
	DayKeywords    = []string{"日", "day"}
	AmountKeywords = []string{"金額", "入金額", "振込金額", "取引金額", "お支払金額", "amount"}
	AmountExclude  = []string{"残高", "手数料", "税", "balance", "fee", "tax"}
	SenderKeywords = []string{
		"摘要", "振込人", "振込依頼人", "依頼人名", "内容", "コメント",
		"取引内容", "備考", "メモ", "sender", "summary", "description",
	}
	DepositKeywords = []string{"入出金区分", "取引区分", "入出金"}
	DepositExclude  = []string{"レコード区分"}
)

// DepositValues are the type-column values that mark a credit.
var DepositValues = []string{"入金", "振込入金", "入"}

// Markers used by the normalizer.
const (
	RecordTypeKeyword = "レコード区分"
	TotalMarker       = "合計"
	TransferMarker    = "振込"
)

// Sampling thresholds for content sniffing.
const (
	SampleRows     = 10
	MinSampleHits  = 3
	SuggestionRows = 5
)
