// Package server は、フォトブースのHTTPサーバーを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// フォトブース画面の配信、セッションAPIの処理を担当します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - セッションの作成・破棄とフィルター選択
//   - 撮影（共有カメラまたはアップロードされたフレーム）
//   - リールの書き出し（PNGのダウンロードと保存）
//   - フィルターを適用したMJPEGプレビューの配信
//
// 仕様:
//   - ルーティングとミドルウェアはginを使用
//   - エラーは ErrorResponse 形式のJSONで返す
//   - 静的ファイル（HTML/CSS/JS）はバイナリに埋め込む
package server
