package gemini

import (
	"fmt"
	"time"

	"github.com/stockwinner/stockwinner/internal/common"
)

// Prompts embed the current Taipei wall-clock time and session status
// so the model grounds its search on "now" instead of training data.

func marketContext(clock *common.MarketClock, now time.Time) string {
	status := "已收盤"
	if clock.IsOpen(now) {
		status = "盤中交易時間"
	}
	return fmt.Sprintf("現在台北時間為 %s（%s）。台股交易時段為週一至週五 09:00–13:30。",
		clock.FormatTimestamp(now), status)
}

// BuildAnalysisPrompt creates the per-stock analysis prompt.
func BuildAnalysisPrompt(query string, clock *common.MarketClock, now time.Time) string {
	return fmt.Sprintf(`你是一位台灣股市資深分析師。%s

請使用 Google 搜尋取得最新資料，針對「%s」進行完整個股分析，對象為台灣上市櫃股票。

要求：
- 以最新搜尋結果為準，引用當日或最近交易日的股價與漲跌幅
- 基本面、技術面、籌碼面、消息面四個構面各給 0-100 分數與重點細節
- 判斷主力/法人動向：佈局(LAYOUT)、試單(TRIAL)、撤退(RETREAT)三階段之一，附主導法人、連續性分數與信心度
- 提供短中長線操作建議與具體交易計畫（進場區間、目標價、停損）
- 所有文字內容一律使用繁體中文，數字使用阿拉伯數字`,
		marketContext(clock, now), query)
}

// BuildRankedListsPrompt creates the dashboard ranked-lists prompt.
func BuildRankedListsPrompt(clock *common.MarketClock, now time.Time) string {
	return fmt.Sprintf(`你是一位台灣股市盤勢觀察員。%s

請使用 Google 搜尋彙整今日台股盤面，產出五個選股清單，每個清單 5 檔台灣上市櫃股票：
1. trending：今日熱門討論與成交動能標的
2. fundamental：基本面強勢（營收、獲利、展望）
3. technical：技術面轉強（型態、均線、量價）
4. chips：籌碼面集中（法人買超、主力進駐）
5. dividend：高殖利率與穩定配息

每檔附上現價、漲跌幅與一句入選理由。所有文字一律使用繁體中文。`,
		marketContext(clock, now))
}

// BuildStrategiesPrompt creates the dashboard strategy-groups prompt.
func BuildStrategiesPrompt(clock *common.MarketClock, now time.Time) string {
	return fmt.Sprintf(`你是一位台灣股市策略研究員。%s

請使用 Google 搜尋近期台股市場主流題材與知名投資策略，產出 3 至 5 個策略選股組合。
每個組合包含：策略名稱、策略說明、資料或方法論來源，以及 3 至 5 檔符合該策略的台灣上市櫃股票（附現價、漲跌幅與入選理由）。

所有文字一律使用繁體中文。`,
		marketContext(clock, now))
}
