// Package main provides localization for the replay CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Frame-accurate playback for annotated match videos": "アノテーション付き試合動画をフレーム精度で再生",
		"Configuration file path (YAML)":                     "設定ファイルのパス（YAML）",
		"Log level (debug, info, warn, error)":               "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                            "全てのログ出力を抑制",
		"Decoder backend (auto, mp4, ffmpeg)":                "デコーダーバックエンド（auto, mp4, ffmpeg）",
		"Use hardware accelerated decoding when available":   "可能な場合はハードウェアアクセラレーションでデコード",
		"Interrupted, shutting down...":                      "中断されました。シャットダウンしています...",
		"a video file argument is required":                  "動画ファイルの引数が必要です",

		// Probe command
		"Print source properties without playing": "再生せずにソースのプロパティを表示",
		"File:":                                   "ファイル:",
		"Format:":                                 "フォーマット:",
		"Decoder:":                                "デコーダー:",
		"Frame rate:":                             "フレームレート:",
		"Frames:":                                 "フレーム数:",
		"Duration:":                               "再生時間:",
		"Annotations:":                            "アノテーション:",
		"(fallback)":                              "（フォールバック）",

		// Play command
		"Play a video headlessly and report delivery statistics": "動画をヘッドレスで再生し配信統計を報告",
		"Playback speed multiplier":                              "再生速度の倍率",
		"Start position in milliseconds":                         "開始位置（ミリ秒）",
		"Play this many source milliseconds (0 = to the end)":    "再生するソース時間（ミリ秒、0 = 最後まで）",
		"Frame buffer target (overrides configuration)":          "フレームバッファの目標値（設定を上書き）",
		"Write a markdown session report to this path":           "Markdownのセッションレポートをこのパスに書き出す",
		"Save decoded frames and session data to this directory": "デコード済みフレームとセッションデータをこのディレクトリに保存",
		"Playing %s":                                             "%s を再生しています",
		"Press Ctrl+C to stop":                                   "停止するには Ctrl+C を押してください",
		"Failed to close source: %s":                             "ソースのクローズに失敗しました: %s",
		"Report saved to %s":                                     "レポートを %s に保存しました",

		// Serve command
		"Serve the browser viewer for a video":            "動画のブラウザビューアを提供",
		"Listen address for the viewer server":            "ビューアサーバーの待ち受けアドレス",
		"Listening on %s":                                 "%s で待ち受けています",
		"Viewer ready at %s":                              "ビューアの準備ができました: %s",
		"Bridge stats: %d published, %d sent, %d dropped": "ブリッジ統計: 配信 %d, 送信 %d, 破棄 %d",

		// Export command
		"Export a composed still for each annotation": "各アノテーションの合成静止画を書き出す",
		"Output directory for stills":                 "静止画の出力ディレクトリ",
		"Image format (png, jpeg)":                    "画像フォーマット（png, jpeg）",
		"Still width in pixels":                       "静止画の幅（ピクセル）",
		"JPEG quality (1-100)":                        "JPEG品質（1-100）",
		"No annotations found for %s":                 "%s のアノテーションが見つかりません",
		"Exported %d stills to %s":                    "%d 枚の静止画を %s に書き出しました",

		// Tag command
		"Add or list annotations for a video":                     "動画のアノテーションを追加または一覧表示",
		"Annotation position in milliseconds":                     "アノテーションの位置（ミリ秒）",
		"Annotation label":                                        "アノテーションのラベル",
		"Team the annotation belongs to (home, away)":             "アノテーションが属するチーム（home, away）",
		"List existing annotations":                               "既存のアノテーションを一覧表示",
		"No annotations":                                          "アノテーションはありません",
		"the --at and --label flags are required (or use --list)": "--at と --label フラグが必要です（または --list を使用）",
		"Valid labels: %s":                                        "有効なラベル: %s",
		"Tagged %s %s at %s":                                      "%s %s を %s にタグ付けしました",

		// Version command
		"Show version information": "バージョン情報を表示",
		"replay version %s":        "replay バージョン %s",

		// Session report
		"Playback Summary": "再生サマリー",
		"Generated by":     "生成:",
		"Generated at":     "生成日時:",
		"Source":           "ソース",
		"Playback":         "再生",
		"Settings":         "設定",
		"Item":             "項目",
		"Value":            "値",
		"Path":             "パス",
		"Decoder":          "デコーダー",
		"Frame Rate":       "フレームレート",
		"Total Frames":     "総フレーム数",
		"Duration":         "再生時間",
		"Frames Delivered": "配信フレーム数",
		"Frames Skipped":   "スキップフレーム数",
		"Realized FPS":     "実効FPS",
		"Average Decode":   "平均デコード時間",
		"Direct Decodes":   "直接デコード数",
		"Prefetch Batches": "先読みバッチ数",
		"Urgent Bursts":    "緊急バースト数",
		"Data Delivered":   "配信データ量",
		"Wall Clock":       "実時間",
		"Completed":        "完了",
		"Speed":            "速度",
		"Buffer Target":    "バッファ目標値",
		"Frame Skip":       "フレームスキップ",
		"Hardware Decode":  "ハードウェアデコード",
		"Yes":              "はい",
		"No":               "いいえ",
		"On":               "オン",
		"Off":              "オフ",
	})
}
