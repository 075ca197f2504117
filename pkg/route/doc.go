// Package route はパスパターン・認証・アクションの組を順に照合するルーターを提供する。
//
// ルーティング表は起動時に1度だけ組み立て、以降は変更しない。
// リクエストのパスに最初に一致した組だけが使われるため、表の順序は設定の一部である。
// 一致した組の検証器が失敗した場合、理由にかかわらずボディの無い401を返す。
package route
