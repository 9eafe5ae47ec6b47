/*
Dividend contract is a NEP-17 token which shares GAS sent to it between the
token holders proportionally to their balances.

Any GAS transferred to the contract is a dividend. It's distributed in
constant time: the contract keeps a single accumulator of GAS per token
multiplied by 10^18 and reconciles each holder only when its balance changes
or it claims. Holders pull their dividends with the Claim method.

Only plain accounts take part in distribution. An account becomes eligible
when it receives tokens while no contract is deployed at its address and
stays eligible forever. Tokens held by deployed contracts are not counted in
the eligible supply and earn nothing. GAS received while no eligible tokens
exist is rejected.

Contract notifications

Transfer notification. This is NEP-17 standard notification.

  Transfer:
    - name: from
      type: Hash160
    - name: to
      type: Hash160
    - name: amount
      type: Integer

DividendDelivered notification. This notification is produced when GAS
dividends are received and shared between eligible holders.

  DividendDelivered:
    - name: amount
      type: Integer

DividendClaimed notification. This notification is produced when holder
claims its dividends.

  DividendClaimed:
    - name: account
      type: Hash160
    - name: amount
      type: Integer
*/
package dividend
