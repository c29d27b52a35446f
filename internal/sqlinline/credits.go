package sqlinline

const QSelectCreditBalance = `--sql 3f7c1a2e-9b04-4d8f-a6e1-57c2d90b4a11
select balance
from credit_accounts
where account_id = $1::uuid
limit 1;
`

// QDeductCredits only succeeds when the balance covers the amount; the
// conditional predicate is what serializes concurrent spends on one account.
const QDeductCredits = `--sql b2d84e60-1c3a-4f97-8e52-0a6b7c3d9e24
update credit_accounts
set balance = balance - $2::int,
    updated_at = now()
where account_id = $1::uuid
  and balance >= $2::int
returning balance;
`

const QGrantCredits = `--sql 7a95c3d1-42e8-4b06-9f73-d18e5a0c6b38
insert into credit_accounts (account_id, balance, created_at, updated_at)
values ($1::uuid, $2::int, now(), now())
on conflict (account_id) do update set
    balance = credit_accounts.balance + excluded.balance,
    updated_at = now()
returning balance;
`

const QInsertCreditEntry = `--sql e49f6b27-8d05-4a13-b7c9-2f3a1d8e0c55
insert into credit_entries (id, account_id, amount, reason, metadata, created_at)
values (gen_random_uuid(), $1::uuid, $2::int, $3::text, coalesce($4::jsonb, '{}'::jsonb), now())
returning id;
`

const QListCreditEntries = `--sql 91c2e8f4-5a6b-4d30-8e17-c4b9d2a7f063
select id, amount, reason, metadata, created_at
from credit_entries
where account_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`
