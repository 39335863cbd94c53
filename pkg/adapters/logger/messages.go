package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session messages (info)
		"Found %d video inputs":       "%d 台の映像入力が見つかりました",
		"Switched to %s":              "%s に切り替えました",
		"Stopped":                     "停止しました",
		"Background set to %s":        "背景を %s に設定しました",
		"Recorded %d frames to %s":    "%d フレームを %s に録画しました",
		"Select a video input device": "映像入力デバイスを選択してください",

		// Session failures (warn, error)
		"Failed to list devices: %s":          "デバイス一覧の取得に失敗しました: %s",
		"Failed to open device %s: %s":        "デバイス %s を開けませんでした: %s",
		"Failed to play output: %s":           "出力の再生に失敗しました: %s",
		"Failed to load background %s: %s":    "背景 %s の読み込みに失敗しました: %s",
		"Background could not be decoded: %s": "背景をデコードできませんでした: %s",

		// Compositor loop (warn)
		"Segmentation failed: %s":        "セグメンテーションに失敗しました: %s",
		"Failed to submit frame: %s":     "フレームの送信に失敗しました: %s",
		"Failed to compose frame: %s":    "フレームの描画に失敗しました: %s",
		"%d similar warnings suppressed": "同様の警告 %d 件を省略しました",

		// Media elements (warn)
		"Failed to write frame %d: %s":        "フレーム %d の書き込みに失敗しました: %s",
		"Camera %d stopped delivering frames": "カメラ %d からフレームが届かなくなりました",
	})

	l10n.Register("zh", l10n.LexiconMap{
		"Found %d video inputs":       "找到 %d 个视频输入",
		"Switched to %s":              "已切换到 %s",
		"Stopped":                     "已停止",
		"Background set to %s":        "背景已设置为 %s",
		"Recorded %d frames to %s":    "已录制 %d 帧到 %s",
		"Select a video input device": "请选择视频输入设备",

		"Failed to list devices: %s":          "获取设备列表失败: %s",
		"Failed to open device %s: %s":        "无法打开设备 %s: %s",
		"Failed to play output: %s":           "播放输出失败: %s",
		"Failed to load background %s: %s":    "加载背景 %s 失败: %s",
		"Background could not be decoded: %s": "无法解码背景: %s",

		"Segmentation failed: %s":        "分割失败: %s",
		"Failed to submit frame: %s":     "提交帧失败: %s",
		"Failed to compose frame: %s":    "绘制帧失败: %s",
		"%d similar warnings suppressed": "已省略 %d 条相似警告",

		"Failed to write frame %d: %s":        "写入第 %d 帧失败: %s",
		"Camera %d stopped delivering frames": "摄像头 %d 已停止输出帧",
	})
}
