// Package booth はフォトブースの撮影・リール・書き出しを担う
//
// # 責務
//   - 映像ソースの現在フレームにフィルターを焼き込んで撮影する (Engine)
//   - 最新3枚を新しい順に保持するリール (Reel)
//   - リールを表示用モデルへ変換する (Render)
//   - リール全体を縦に並べた1枚のPNGを作成する (Exporter)
//   - 現在のフィルターとリールを持つセッションと、その管理 (Session, Manager)
//
// # 仕様
//   - 書き出しでは各画像を別ゴルーチンでデコードし、完了数がN件に達した時点で
//     一度だけ確定する。配置はインデックスで決まるため完了順に依存しない
//   - デコードに1件でも失敗した場合は書き出し全体を中止する
//   - UI側の副作用（撮影時のフラッシュ、ボタンの無効化）は Observer への通知で表現する
package booth
