package signing

const (
	// ClobDomainName L1 认证 EIP712 域名名称
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion EIP712 版本
	ClobVersion = "1"

	// MsgToSign 认证签名消息，必须与交易所期望逐字节一致
	MsgToSign = "This message attests that I control the given wallet"

	// ExchangeDomainName 订单签名 EIP712 域名名称
	ExchangeDomainName = "Polymarket CTF Exchange"

	// ExchangeVersion 订单签名 EIP712 版本
	ExchangeVersion = "1"

	// ZeroAddress 零地址，taker 为零地址表示公开订单
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)
