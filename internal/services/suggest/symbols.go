package suggest

import "github.com/stockwinner/stockwinner/internal/models"

// builtinSymbols is the local autocomplete universe: large-cap and
// frequently searched TWSE/TPEx names. Lookup is entirely offline.
var builtinSymbols = []models.SymbolInfo{
	{Code: "2330", Name: "台積電", Sector: "半導體"},
	{Code: "2317", Name: "鴻海", Sector: "電子代工"},
	{Code: "2454", Name: "聯發科", Sector: "半導體"},
	{Code: "2308", Name: "台達電", Sector: "電子零組件"},
	{Code: "2303", Name: "聯電", Sector: "半導體"},
	{Code: "3711", Name: "日月光投控", Sector: "半導體"},
	{Code: "3034", Name: "聯詠", Sector: "半導體"},
	{Code: "2379", Name: "瑞昱", Sector: "半導體"},
	{Code: "3008", Name: "大立光", Sector: "光學"},
	{Code: "2382", Name: "廣達", Sector: "電子代工"},
	{Code: "2357", Name: "華碩", Sector: "電腦週邊"},
	{Code: "2356", Name: "英業達", Sector: "電子代工"},
	{Code: "2324", Name: "仁寶", Sector: "電子代工"},
	{Code: "4938", Name: "和碩", Sector: "電子代工"},
	{Code: "3231", Name: "緯創", Sector: "電子代工"},
	{Code: "6669", Name: "緯穎", Sector: "伺服器"},
	{Code: "3017", Name: "奇鋐", Sector: "散熱"},
	{Code: "2376", Name: "技嘉", Sector: "電腦週邊"},
	{Code: "2377", Name: "微星", Sector: "電腦週邊"},
	{Code: "2301", Name: "光寶科", Sector: "電子零組件"},
	{Code: "2327", Name: "國巨", Sector: "被動元件"},
	{Code: "2345", Name: "智邦", Sector: "網通"},
	{Code: "2412", Name: "中華電", Sector: "電信"},
	{Code: "3045", Name: "台灣大", Sector: "電信"},
	{Code: "4904", Name: "遠傳", Sector: "電信"},
	{Code: "2881", Name: "富邦金", Sector: "金融"},
	{Code: "2882", Name: "國泰金", Sector: "金融"},
	{Code: "2884", Name: "玉山金", Sector: "金融"},
	{Code: "2885", Name: "元大金", Sector: "金融"},
	{Code: "2886", Name: "兆豐金", Sector: "金融"},
	{Code: "2891", Name: "中信金", Sector: "金融"},
	{Code: "5880", Name: "合庫金", Sector: "金融"},
	{Code: "2880", Name: "華南金", Sector: "金融"},
	{Code: "1301", Name: "台塑", Sector: "塑膠"},
	{Code: "1303", Name: "南亞", Sector: "塑膠"},
	{Code: "1326", Name: "台化", Sector: "塑膠"},
	{Code: "6505", Name: "台塑化", Sector: "油電燃氣"},
	{Code: "2002", Name: "中鋼", Sector: "鋼鐵"},
	{Code: "1101", Name: "台泥", Sector: "水泥"},
	{Code: "1102", Name: "亞泥", Sector: "水泥"},
	{Code: "2603", Name: "長榮", Sector: "航運"},
	{Code: "2609", Name: "陽明", Sector: "航運"},
	{Code: "2615", Name: "萬海", Sector: "航運"},
	{Code: "2610", Name: "華航", Sector: "航空"},
	{Code: "2618", Name: "長榮航", Sector: "航空"},
	{Code: "1216", Name: "統一", Sector: "食品"},
	{Code: "2912", Name: "統一超", Sector: "貿易百貨"},
	{Code: "2207", Name: "和泰車", Sector: "汽車"},
	{Code: "9910", Name: "豐泰", Sector: "製鞋"},
	{Code: "9904", Name: "寶成", Sector: "製鞋"},
}
