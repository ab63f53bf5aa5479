package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Player component
		"Loaded %s: %d frames at %.2f fps":               "%s を読み込みました: %d フレーム, %.2f fps",
		"Seek to %dms (frame %d)":                        "%dms へシーク (フレーム %d)",
		"Skipped %d frames to catch up (%.0fms behind)":  "追いつくため %d フレームをスキップしました (%.0fms 遅延)",
		"Playback finished":                              "再生が終了しました",
		"Playback loop stopped":                          "再生ループを停止しました",
		"Decode of frame %d failed, ending playback: %v": "フレーム %d のデコードに失敗したため再生を終了します: %v",
		"Prefetch decode of frame %d failed: %v":         "フレーム %d の先読みデコードに失敗しました: %v",
		"Closing previous source failed: %v":             "前のソースのクローズに失敗しました: %v",

		// Source adapters
		"Probing %s":                          "%s を解析中",
		"Probed %s: %d frames at %.2f fps":    "%s を解析しました: %d フレーム, %.2f fps",
		"Opened %s with %s decoder":           "%s を %s デコーダーで開きました",
		"Decoder %s failed, trying %s: %v":    "デコーダー %s が失敗したため %s を試します: %v",
		"Format detection failed for %s: %v":  "%s のフォーマット検出に失敗しました: %v",
		"Starting decoder pipe at frame %d":   "フレーム %d からデコーダーパイプを開始",
		"Restarting decoder pipe at frame %d": "フレーム %d でデコーダーパイプを再起動",

		// Annotation store
		"Could not read annotations from %s: %v": "%s からアノテーションを読み込めませんでした: %v",

		// Bridge component
		"Viewer %s connected (%d online)":          "ビューア %s が接続しました (%d 接続中)",
		"Viewer %s disconnected (%d online)":       "ビューア %s が切断しました (%d 接続中)",
		"Dropped %d updates for viewer %s":         "%d 件の更新をビューア %s 向けに破棄しました",
		"Websocket upgrade failed: %v":             "WebSocketへのアップグレードに失敗しました: %v",
		"Discarding malformed control message: %v": "不正な操作メッセージを破棄します: %v",
		"Unknown control message type %q":          "不明な操作メッセージタイプ %q",
		"Control %s failed: %v":                    "操作 %s に失敗しました: %v",
		"Could not encode state message: %v":       "状態メッセージをエンコードできませんでした: %v",
		"Could not encode %T: %v":                  "%T をエンコードできませんでした: %v",

		// Stills export
		"Extracting %d stills from %s":        "%d 枚の静止画を %s から抽出中",
		"Composing %d stills":                 "%d 枚の静止画を合成中",
		"Composing %d stills with %d workers": "%d 枚の静止画を %d ワーカーで合成中",
		"Extracted frame %d for %s at %s":     "フレーム %d を抽出しました (%s, %s)",
		"Wrote %s (%d bytes)":                 "%s を書き込みました (%d バイト)",
		"Stills written to %s":                "静止画を %s に書き出しました",
		"Failed to extract frames: %s":        "フレームの抽出に失敗しました: %s",
		"Failed to compose stills: %s":        "静止画の合成に失敗しました: %s",
		"Failed to write stills: %s":          "静止画の書き込みに失敗しました: %s",
	})
}
