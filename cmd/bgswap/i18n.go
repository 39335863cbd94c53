// Package main provides localization for the bgswap CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Replace the background of a live camera stream.": "カメラ映像の背景をリアルタイムに置き換えます。",

		// Version command
		"bgswap version %s": "bgswap バージョン %s",

		// Runtime messages
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"Recording to %s":               "%s に録画中",
		"Preview at %s":                 "プレビューを %s に出力中",
		"Failed to close session: %s":   "セッションの終了に失敗しました: %s",
		"Failed to finish output: %s":   "出力の完了に失敗しました: %s",
		// Summary output
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
		"Summary saved to %s":         "サマリーを %s に保存しました",

		// Summary content
		"Session Summary":    "セッションサマリー",
		"Generated":          "生成日時",
		"Session":            "セッション",
		"Settings":           "設定",
		"Frames":             "フレーム",
		"Outputs":            "出力",
		"Item":               "項目",
		"Value":              "値",
		"Device":             "デバイス",
		"Background":         "背景",
		"Background Ready":   "背景の準備完了",
		"Duration":           "実行時間",
		"Generations":        "世代数",
		"Resolution":         "解像度",
		"Frame Rate":         "フレームレート",
		"Camera":             "カメラ",
		"Segmenter":          "セグメンター",
		"Model Selection":    "モデル選択",
		"Submit Timeout":     "送信タイムアウト",
		"Submitted":          "送信",
		"Drawn":              "描画",
		"Stale":              "破棄（古い世代）",
		"Skipped While Busy": "処理中のためスキップ",
		"Errors":             "エラー",
		"Drawn Per Second":   "毎秒の描画数",
		"Recording":          "録画",
		"Preview":            "プレビュー",
		"Debug Output":       "デバッグ出力",
		"None":               "なし",
		"Yes":                "はい",
		"No":                 "いいえ",
	})

	l10n.Register("zh", l10n.LexiconMap{
		"Replace the background of a live camera stream.": "实时替换摄像头画面的背景。",

		"bgswap version %s": "bgswap 版本 %s",

		"Interrupted, shutting down...": "已中断，正在关闭...",
		"Recording to %s":               "正在录制到 %s",
		"Preview at %s":                 "预览输出到 %s",
		"Failed to close session: %s":   "关闭会话失败: %s",
		"Failed to finish output: %s":   "完成输出失败: %s",
		"Failed to write summary: %s":   "写入摘要失败: %s",
		"Summary saved to %s":           "摘要已保存到 %s",

		"Session Summary":    "会话摘要",
		"Generated":          "生成时间",
		"Session":            "会话",
		"Settings":           "设置",
		"Frames":             "帧",
		"Outputs":            "输出",
		"Item":               "项目",
		"Value":              "值",
		"Device":             "设备",
		"Background":         "背景",
		"Background Ready":   "背景已就绪",
		"Duration":           "运行时长",
		"Generations":        "代数",
		"Resolution":         "分辨率",
		"Frame Rate":         "帧率",
		"Camera":             "摄像头",
		"Segmenter":          "分割器",
		"Model Selection":    "模型选择",
		"Submit Timeout":     "提交超时",
		"Submitted":          "已提交",
		"Drawn":              "已绘制",
		"Stale":              "过期丢弃",
		"Skipped While Busy": "忙碌跳过",
		"Errors":             "错误",
		"Drawn Per Second":   "每秒绘制数",
		"Recording":          "录制",
		"Preview":            "预览",
		"Debug Output":       "调试输出",
		"None":               "无",
		"Yes":                "是",
		"No":                 "否",
	})
}
