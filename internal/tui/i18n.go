package tui

// i18n provides a simple internationalization system for the TUI.
// Supported locales: "en" (English, default), "zh" (Chinese).

var currentLocale = "en"

// SetLocale changes the active locale.
func SetLocale(locale string) {
	if _, ok := locales[locale]; ok {
		currentLocale = locale
	}
}

// CurrentLocale returns the active locale code.
func CurrentLocale() string {
	return currentLocale
}

// ToggleLocale switches between zh and en.
func ToggleLocale() {
	if currentLocale == "zh" {
		currentLocale = "en"
	} else {
		currentLocale = "zh"
	}
}

// T returns the translated string for the given key.
func T(key string) string {
	if m, ok := locales[currentLocale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	// Fallback to English
	if m, ok := locales["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

var locales = map[string]map[string]string{
	"zh": zhStrings,
	"en": enStrings,
}

// ──────────────────────────────────────────
// Tab names, one per entry in tabRoutes
// ──────────────────────────────────────────
var zhTabNames = []string{"首页", "探索", "我的", "日志"}
var enTabNames = []string{"Home", "Explore", "Profile", "Logs"}

// TabNames returns tab names in the current locale.
func TabNames() []string {
	if currentLocale == "zh" {
		return zhTabNames
	}
	return enTabNames
}

var zhStrings = map[string]string{
	// ── Common ──
	"loading":          "加载中...",
	"initializing":     "正在初始化...",
	"checking_session": "正在检查登录状态...",
	"status_left":      " restate",
	"status_right":     "Tab/Shift+Tab: 切换 • L: 语言 • Ctrl+C: 退出 ",
	"signed_in_as":     "已登录: ",
	"signed_out":       "未登录",

	// ── Sign in ──
	"sign_in_title":      "🏠 欢迎来到 ReState",
	"sign_in_subtitle":   "让找到理想的家变得更简单",
	"sign_in_help":       "Enter: 使用 Google 登录 • q/Ctrl+C: 退出 • L: 语言",
	"sign_in_connecting": "正在浏览器中完成登录...",
	"sign_in_failed":     "登录失败",

	// ── Home / Explore ──
	"featured":           "精选",
	"recommended":        "为你推荐",
	"no_results":         "没有找到房源",
	"filter":             "类型",
	"search_placeholder": "搜索名称、地址或类型",
	"home_help":          "[ / ]: 切换类型 • r: 刷新",
	"explore_help":       "/: 搜索 • Enter: 提交 • Esc: 取消 • [ / ]: 切换类型 • r: 刷新",
	"found":              "找到 %d 个房源",
	"price":              "价格",
	"rating":             "评分",
	"address":            "地址",
	"image":              "图片",
	"detail_help":        "Esc: 返回",

	// ── Profile ──
	"profile_title":  "个人资料",
	"profile_name":   "姓名",
	"profile_email":  "邮箱",
	"profile_id":     "用户 ID",
	"profile_avatar": "头像",
	"profile_help":   "o: 退出登录 • r: 刷新",
	"logging_out":    "正在退出...",
	"logout_failed":  "退出失败",

	// ── Logs ──
	"logs_title":       "📋 日志",
	"logs_auto_scroll": "● 自动滚动",
	"logs_paused":      "○ 已暂停",
	"logs_filter":      "过滤",
	"logs_lines":       "行数",
	"logs_help":        " [a]自动滚动 • [c]清除 • [1]全部 [2]info+ [3]warn+ [4]error • [↑↓]滚动",
	"logs_waiting":     "  等待日志输出...",
}

var enStrings = map[string]string{
	// ── Common ──
	"loading":          "Loading...",
	"initializing":     "Initializing...",
	"checking_session": "Checking session...",
	"status_left":      " restate",
	"status_right":     "Tab/Shift+Tab: switch • L: lang • Ctrl+C: quit ",
	"signed_in_as":     "Signed in as ",
	"signed_out":       "Signed out",

	// ── Sign in ──
	"sign_in_title":      "🏠 Welcome to ReState",
	"sign_in_subtitle":   "Let's get you closer to your ideal home",
	"sign_in_help":       "Enter: continue with Google • q/Ctrl+C: quit • L: lang",
	"sign_in_connecting": "Finishing sign in in your browser...",
	"sign_in_failed":     "Failed to login",

	// ── Home / Explore ──
	"featured":           "Featured",
	"recommended":        "Our Recommendation",
	"no_results":         "No properties found",
	"filter":             "Type",
	"search_placeholder": "Search name, address or type",
	"home_help":          "[ / ]: change type • r: refresh",
	"explore_help":       "/: search • Enter: submit • Esc: cancel • [ / ]: change type • r: refresh",
	"found":              "Found %d properties",
	"price":              "Price",
	"rating":             "Rating",
	"address":            "Address",
	"image":              "Image",
	"detail_help":        "Esc: back",

	// ── Profile ──
	"profile_title":  "Profile",
	"profile_name":   "Name",
	"profile_email":  "Email",
	"profile_id":     "User ID",
	"profile_avatar": "Avatar",
	"profile_help":   "o: logout • r: refresh",
	"logging_out":    "Logging out...",
	"logout_failed":  "Failed to logout",

	// ── Logs ──
	"logs_title":       "📋 Logs",
	"logs_auto_scroll": "● AUTO-SCROLL",
	"logs_paused":      "○ PAUSED",
	"logs_filter":      "Filter",
	"logs_lines":       "Lines",
	"logs_help":        " [a]uto-scroll • [c]lear • [1]all [2]info+ [3]warn+ [4]error • [↑↓]scroll",
	"logs_waiting":     "  Waiting for log output...",
}
