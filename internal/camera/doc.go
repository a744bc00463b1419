// Package camera フォトブースに映像フレームを供給するソースを担う
//
// # 責務
// - USBカメラ(V4L2)からのフレーム取得とMJPEGストリーミング
// - 静止画やアップロード画像をフレームソースとして扱う
// - カメラの準備完了(ready)/失敗の通知
// - V4L2デバイスの検出
//
// # 仕様
// - StreamSource: ffmpeg経由でUSBカメラまたはX11画面を連続キャプチャし、最新フレームを保持する
// - StillSource: 固定画像を返すソース（テスト、アップロード、CLI用）
// - Acquire: ソースの開始を一度だけ解決される非同期処理として扱う
// - Thread-safe な操作をサポート
//
// # 前提要件
//   - v4l-utils: カメラ名の取得に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: 画像キャプチャとストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
